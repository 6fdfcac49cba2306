package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is append-only: no update path exists, deletion only happens when
// the parent story is deleted.
type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoryID     uuid.UUID `gorm:"type:uuid;not null;index" json:"story_id"`
	AuthorID    *string   `gorm:"size:64" json:"author_id"`
	Author      string    `gorm:"size:100;not null" json:"author"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
