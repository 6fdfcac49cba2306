package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	// Find returns (nil, nil) when no row exists for the pair.
	Find(ctx context.Context, ownerID string, storyID uuid.UUID) (*model.Reaction, error)
	Create(ctx context.Context, reaction *model.Reaction) error
	Save(ctx context.Context, reaction *model.Reaction) error
	Delete(ctx context.Context, reaction *model.Reaction) error
	CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Find(ctx context.Context, ownerID string, storyID uuid.UUID) (*model.Reaction, error) {
	// Find with a slice avoids "record not found" log noise from GORM's First()
	var existing []model.Reaction
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND story_id = ?", ownerID, storyID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) Save(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).Save(reaction).Error
}

func (r *reactionRepository) Delete(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).Delete(reaction).Error
}

func (r *reactionRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Where("story_id = ?", storyID).
		Count(&count).Error
	return count, err
}
