package dto

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token       string  `json:"token"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email,omitempty"`
	Anonymous   bool    `json:"anonymous"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

type CreateStoryRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Content     string   `json:"content" binding:"required,min=50"`
	Tags        []string `json:"tags"`
	IsAnonymous bool     `json:"is_anonymous"`
}

type UpdateStoryRequest struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Content string   `json:"content" binding:"required,min=50"`
	Tags    []string `json:"tags"`
}

type StoryListFilter struct {
	Tag    string `form:"tag"`
	SortBy string `form:"sort_by"` // "newest", "popular"
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type ReactionRequest struct {
	Type string `json:"type" binding:"required,oneof=like love"`
}

// ReactionResult mirrors the shape the web client reconciles against:
// whether the actor now has an active reaction and the fresh counters.
type ReactionResult struct {
	Reacted bool    `json:"reacted"`
	Type    *string `json:"type"`
	Likes   int     `json:"likes"`
	Loves   int     `json:"loves"`
}

type ReactionState struct {
	Reacted bool    `json:"reacted"`
	Type    *string `json:"type"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID          uuid.UUID `json:"id"`
	StoryID     uuid.UUID `json:"story_id"`
	AuthorID    *string   `json:"author_id"`
	Author      string    `json:"author"`
	IsAnonymous bool      `json:"is_anonymous"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentListResponse carries the degraded flag so clients can tell a
// fallback-sorted listing apart from a hard failure.
type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
	Degraded bool              `json:"degraded,omitempty"`
}

type ModerateStoryRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name" binding:"max=100"`
	Bio         *string `json:"bio"`
}

type SearchResponse struct {
	Stories  interface{} `json:"stories"`
	Degraded bool        `json:"degraded,omitempty"`
}
