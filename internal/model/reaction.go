package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction is one tracked like/love per (owner, story). Pseudo actors never
// get a row here; their reactions only bump the story counters.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   string    `gorm:"size:64;not null;index:idx_reactions_unique,unique,priority:1" json:"owner_id"`
	StoryID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reactions_unique,unique,priority:2;index:idx_reactions_story" json:"story_id"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reaction) TableName() string {
	return "reactions"
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
