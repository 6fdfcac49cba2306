package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

type CommentService interface {
	AddComment(ctx context.Context, storyID uuid.UUID, text string, actor identity.Identity) (*model.Comment, error)
	// ListComments returns comments newest-first. degraded is true when the
	// store rejected the ordered query and the result was sorted in memory;
	// that path is a warning, not a failure.
	ListComments(ctx context.Context, storyID uuid.UUID, limit int) (comments []*model.Comment, degraded bool, err error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	storyRepo   repository.StoryRepository
	sanitizer   *bluemonday.Policy
}

func NewCommentService(commentRepo repository.CommentRepository, storyRepo repository.StoryRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		storyRepo:   storyRepo,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *commentService) AddComment(ctx context.Context, storyID uuid.UUID, text string, actor identity.Identity) (*model.Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperror.ErrValidation)
	}

	if _, err := s.storyRepo.FindByID(ctx, storyID); err != nil {
		return nil, err
	}

	// Attribution follows the identity class: only durable accounts get an
	// author id on the record.
	var authorID *string
	if actor.Class == identity.ClassAuthenticated {
		key := actor.OwnerKey
		authorID = &key
	}

	comment := &model.Comment{
		StoryID:     storyID,
		AuthorID:    authorID,
		Author:      actor.DisplayName,
		IsAnonymous: actor.IsAnonymous,
		Content:     s.sanitizer.Sanitize(trimmed),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) ListComments(ctx context.Context, storyID uuid.UUID, limit int) ([]*model.Comment, bool, error) {
	comments, err := s.commentRepo.FindByStoryOrdered(ctx, storyID, limit)
	if err == nil {
		return comments, false, nil
	}

	// The ordered query needs a composite index on (story_id, created_at);
	// when the store cannot serve it, fetch unordered and sort here.
	log.Printf("[warn] ordered comment query failed, using in-memory sort: %v", err)

	comments, err = s.commentRepo.FindByStoryUnordered(ctx, storyID, limit)
	if err != nil {
		return nil, false, err
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, true, nil
}
