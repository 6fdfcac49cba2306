package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ReactionLike = "like"
	ReactionLove = "love"
)

// DefaultTag is applied when a story is submitted with no tags.
const DefaultTag = "general"

type Story struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Excerpt   string    `gorm:"size:200;not null" json:"excerpt"`
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	// AuthorID is null for fully anonymous authorship (pseudo/shadow actors).
	AuthorID    *string   `gorm:"size:64;index" json:"author_id"`
	Author      string    `gorm:"size:100;not null" json:"author"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	Likes       int       `gorm:"not null;default:0" json:"likes"`
	Loves       int       `gorm:"not null;default:0" json:"loves"`
	Status      string    `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Story) TableName() string {
	return "stories"
}

func (s *Story) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}
