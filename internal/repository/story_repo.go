package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"gorm.io/gorm"
)

type StoryFilter struct {
	Tag             string
	Status          string
	SortBy          string // "newest", "popular"
	IncludeRejected bool
	Offset          int
	Limit           int
}

type StoryRepository interface {
	Create(ctx context.Context, story *model.Story) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Story, error)
	FindAll(ctx context.Context, filter StoryFilter) ([]*model.Story, int64, error)
	FindByAuthor(ctx context.Context, ownerKey string, limit int) ([]*model.Story, error)
	Update(ctx context.Context, story *model.Story) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	AdjustCounts(ctx context.Context, id uuid.UUID, likeDelta, loveDelta int) (*model.Story, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	SearchContent(ctx context.Context, q string, limit int) ([]*model.Story, error)
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *model.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

func (r *storyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Story, error) {
	var story model.Story
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&story).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) FindAll(ctx context.Context, filter StoryFilter) ([]*model.Story, int64, error) {
	var stories []*model.Story
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Story{})

	if !filter.IncludeRejected {
		query = query.Where("status <> ?", model.StatusRejected)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array; matching the quoted literal keeps
		// this portable across postgres and sqlite.
		query = query.Where("tags LIKE ?", `%"`+filter.Tag+`"%`)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case "popular":
		query = query.Order("likes + loves DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	if err := query.Find(&stories).Error; err != nil {
		return nil, 0, err
	}
	return stories, total, nil
}

func (r *storyRepository) FindByAuthor(ctx context.Context, ownerKey string, limit int) ([]*model.Story, error) {
	var stories []*model.Story
	query := r.db.WithContext(ctx).
		Where("author_id = ?", ownerKey).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&stories).Error; err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) Update(ctx context.Context, story *model.Story) error {
	return r.db.WithContext(ctx).Save(story).Error
}

func (r *storyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&model.Story{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// AdjustCounts applies deltas to the like/love counters with a floor of zero.
// Read-then-write, not a transaction: concurrent reactions on the same story
// resolve last-write-wins, which is the accepted consistency level here.
func (r *storyRepository) AdjustCounts(ctx context.Context, id uuid.UUID, likeDelta, loveDelta int) (*model.Story, error) {
	story, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	story.Likes = clampZero(story.Likes + likeDelta)
	story.Loves = clampZero(story.Loves + loveDelta)

	if err := r.db.WithContext(ctx).Model(story).
		UpdateColumns(map[string]interface{}{
			"likes": story.Likes,
			"loves": story.Loves,
		}).Error; err != nil {
		return nil, err
	}
	return story, nil
}

// DeleteCascade removes the story together with every comment and reaction
// referencing it, in one transaction so no orphans survive a partial failure.
func (r *storyRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id = ?", id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Story{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
}

func (r *storyRepository) SearchContent(ctx context.Context, q string, limit int) ([]*model.Story, error) {
	var stories []*model.Story
	pattern := "%" + q + "%"
	query := r.db.WithContext(ctx).
		Where("status <> ?", model.StatusRejected).
		Where("title LIKE ? OR content LIKE ?", pattern, pattern).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&stories).Error; err != nil {
		return nil, err
	}
	return stories, nil
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
