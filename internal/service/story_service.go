package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

const (
	excerptLength   = 150
	defaultPageSize = 10
	maxPageSize     = 20
)

// SearchIndex is the full-text index for stories. A nil index is legal;
// callers then use the database fallback.
type SearchIndex interface {
	IndexStory(ctx context.Context, story *model.Story) error
	RemoveStory(ctx context.Context, storyID string) error
	SearchStories(ctx context.Context, q string, limit int) ([]*model.Story, error)
}

type StoryService interface {
	Create(ctx context.Context, req dto.CreateStoryRequest, actor identity.Identity) (*model.Story, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Story, error)
	List(ctx context.Context, filter dto.StoryListFilter) ([]*model.Story, *dto.PaginationMeta, error)
	ListByAuthor(ctx context.Context, ownerKey string, limit int) ([]*model.Story, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateStoryRequest, actor identity.Identity) (*model.Story, error)
	// Delete removes the story and cascades to its comments and reactions.
	Delete(ctx context.Context, id uuid.UUID, actor identity.Identity) error
	Moderate(ctx context.Context, id uuid.UUID, status string) error
	ListForModeration(ctx context.Context, status string, page, limit int) ([]*model.Story, *dto.PaginationMeta, error)
	// Search queries the full-text index, degrading to a database scan when
	// the index is unavailable. degraded mirrors the comment-listing contract.
	Search(ctx context.Context, q string, limit int) (stories []*model.Story, degraded bool, err error)
}

type storyService struct {
	storyRepo   repository.StoryRepository
	searchIndex SearchIndex
	sanitizer   *bluemonday.Policy
}

func NewStoryService(storyRepo repository.StoryRepository, searchIndex SearchIndex) StoryService {
	return &storyService{
		storyRepo:   storyRepo,
		searchIndex: searchIndex,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *storyService) Create(ctx context.Context, req dto.CreateStoryRequest, actor identity.Identity) (*model.Story, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", apperror.ErrValidation)
	}
	content = s.sanitizer.Sanitize(content)

	tags := req.Tags
	if len(tags) == 0 {
		tags = []string{model.DefaultTag}
	}

	story := &model.Story{
		Title:   title,
		Content: content,
		Excerpt: makeExcerpt(content),
		Tags:    tags,
		Likes:   0,
		Loves:   0,
		// Every submission starts pending; approval is a moderator action.
		Status: model.StatusPending,
	}

	// Anonymity: an authenticated author may still publish anonymously and
	// keeps ownership; shadow/pseudo authors are anonymous with no owner.
	switch actor.Class {
	case identity.ClassAuthenticated:
		key := actor.OwnerKey
		story.AuthorID = &key
		story.IsAnonymous = req.IsAnonymous
		if req.IsAnonymous {
			story.Author = identity.FallbackAnonymous
		} else {
			story.Author = actor.DisplayName
		}
	default:
		story.AuthorID = nil
		story.IsAnonymous = true
		story.Author = identity.FallbackAnonymous
	}

	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}

	s.index(ctx, story)
	return story, nil
}

func (s *storyService) GetByID(ctx context.Context, id uuid.UUID) (*model.Story, error) {
	return s.storyRepo.FindByID(ctx, id)
}

func (s *storyService) List(ctx context.Context, filter dto.StoryListFilter) ([]*model.Story, *dto.PaginationMeta, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	stories, total, err := s.storyRepo.FindAll(ctx, repository.StoryFilter{
		Tag:    filter.Tag,
		SortBy: filter.SortBy,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, nil, err
	}
	return stories, paginationMeta(page, limit, total), nil
}

func (s *storyService) ListByAuthor(ctx context.Context, ownerKey string, limit int) ([]*model.Story, error) {
	return s.storyRepo.FindByAuthor(ctx, ownerKey, limit)
}

func (s *storyService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateStoryRequest, actor identity.Identity) (*model.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only the durable author may edit.
	if actor.Class != identity.ClassAuthenticated || story.AuthorID == nil || *story.AuthorID != actor.OwnerKey {
		return nil, fmt.Errorf("%w: not the author of this story", apperror.ErrForbidden)
	}

	story.Title = strings.TrimSpace(req.Title)
	story.Content = s.sanitizer.Sanitize(strings.TrimSpace(req.Content))
	story.Excerpt = makeExcerpt(story.Content)
	if len(req.Tags) > 0 {
		story.Tags = req.Tags
	}

	if err := s.storyRepo.Update(ctx, story); err != nil {
		return nil, err
	}

	s.index(ctx, story)
	return story, nil
}

func (s *storyService) Delete(ctx context.Context, id uuid.UUID, actor identity.Identity) error {
	story, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeDelete(story, actor); err != nil {
		return err
	}

	if err := s.storyRepo.DeleteCascade(ctx, id); err != nil {
		return err
	}

	if s.searchIndex != nil {
		if err := s.searchIndex.RemoveStory(ctx, id.String()); err != nil {
			// Index cleanup is best-effort once the documents are gone.
			log.Printf("[warn] failed to remove story %s from search index: %v", id, err)
		}
	}
	return nil
}

// authorizeDelete: a durable author may delete only its own stories; a
// pseudo actor may delete any anonymous story. The pseudo rule does not
// verify the specific token.
func authorizeDelete(story *model.Story, actor identity.Identity) error {
	switch actor.Class {
	case identity.ClassAuthenticated:
		if story.AuthorID != nil && *story.AuthorID == actor.OwnerKey {
			return nil
		}
	case identity.ClassPseudo:
		if story.IsAnonymous {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed to delete this story", apperror.ErrForbidden)
}

func (s *storyService) Moderate(ctx context.Context, id uuid.UUID, status string) error {
	if status != model.StatusApproved && status != model.StatusRejected {
		return fmt.Errorf("%w: status must be approved or rejected", apperror.ErrValidation)
	}
	if err := s.storyRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if story, err := s.storyRepo.FindByID(ctx, id); err == nil {
		s.index(ctx, story)
	}
	return nil
}

func (s *storyService) ListForModeration(ctx context.Context, status string, page, limit int) ([]*model.Story, *dto.PaginationMeta, error) {
	page, limit = normalizePage(page, limit)

	stories, total, err := s.storyRepo.FindAll(ctx, repository.StoryFilter{
		Status:          status,
		IncludeRejected: true,
		Offset:          (page - 1) * limit,
		Limit:           limit,
	})
	if err != nil {
		return nil, nil, err
	}
	return stories, paginationMeta(page, limit, total), nil
}

func (s *storyService) Search(ctx context.Context, q string, limit int) ([]*model.Story, bool, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, false, fmt.Errorf("%w: search query is required", apperror.ErrValidation)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	if s.searchIndex != nil {
		stories, err := s.searchIndex.SearchStories(ctx, q, limit)
		if err == nil {
			return stories, false, nil
		}
		log.Printf("[warn] search index unavailable, falling back to database scan: %v", err)
	}

	stories, err := s.storyRepo.SearchContent(ctx, q, limit)
	if err != nil {
		return nil, false, err
	}
	return stories, true, nil
}

func (s *storyService) index(ctx context.Context, story *model.Story) {
	if s.searchIndex == nil {
		return
	}
	if err := s.searchIndex.IndexStory(ctx, story); err != nil {
		log.Printf("[warn] failed to index story %s: %v", story.ID, err)
	}
}

// makeExcerpt keeps the first 150 characters, appending an ellipsis when
// content was cut.
func makeExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) *dto.PaginationMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &dto.PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}
