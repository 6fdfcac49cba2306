package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// FindByStoryOrdered fetches newest-first using the store's own ordering.
	FindByStoryOrdered(ctx context.Context, storyID uuid.UUID, limit int) ([]*model.Comment, error)
	// FindByStoryUnordered is the degraded path for stores that cannot serve
	// the ordered query; callers sort in memory.
	FindByStoryUnordered(ctx context.Context, storyID uuid.UUID, limit int) ([]*model.Comment, error)
	CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByStoryOrdered(ctx context.Context, storyID uuid.UUID, limit int) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := r.db.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) FindByStoryUnordered(ctx context.Context, storyID uuid.UUID, limit int) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := r.db.WithContext(ctx).Where("story_id = ?", storyID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("story_id = ?", storyID).
		Count(&count).Error
	return count, err
}
