package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"gorm.io/gorm"
)

func newStoryFixture(t *testing.T) (StoryService, *gorm.DB) {
	db := setupTestDB(t)
	svc := NewStoryService(repository.NewStoryRepository(db), nil)
	return svc, db
}

func validCreateRequest() dto.CreateStoryRequest {
	return dto.CreateStoryRequest{
		Title:   "The Lost Book",
		Content: "I left my notebook on the train and a stranger returned it to my office the next morning, no note attached.",
	}
}

func TestCreateStoryDefaults(t *testing.T) {
	svc, _ := newStoryFixture(t)

	story, err := svc.Create(context.Background(), validCreateRequest(), pseudoActor("aB3dE6gH9jK2mN5pQ8sT"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, story.Status, "new stories wait for moderation")
	assert.Equal(t, []string{model.DefaultTag}, story.Tags)
	assert.Zero(t, story.Likes)
	assert.Zero(t, story.Loves)
	assert.NotEqual(t, uuid.Nil, story.ID)

	// Pseudo authorship: anonymous, no owner on record.
	assert.Nil(t, story.AuthorID)
	assert.True(t, story.IsAnonymous)
	assert.Equal(t, identity.FallbackAnonymous, story.Author)
}

func TestCreateStoryExcerpt(t *testing.T) {
	svc, _ := newStoryFixture(t)

	t.Run("short content kept whole", func(t *testing.T) {
		req := validCreateRequest()
		story, err := svc.Create(context.Background(), req, shadowActor("guest-1"))
		require.NoError(t, err)
		assert.Equal(t, req.Content, story.Excerpt)
	})

	t.Run("long content truncated with ellipsis", func(t *testing.T) {
		req := validCreateRequest()
		req.Content = strings.Repeat("a", 300)
		story, err := svc.Create(context.Background(), req, shadowActor("guest-1"))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 150)+"...", story.Excerpt)
	})
}

func TestCreateStoryAttribution(t *testing.T) {
	svc, _ := newStoryFixture(t)
	ctx := context.Background()

	t.Run("authenticated author named", func(t *testing.T) {
		story, err := svc.Create(ctx, validCreateRequest(), authedActor("user-1", "Rina"))
		require.NoError(t, err)
		require.NotNil(t, story.AuthorID)
		assert.Equal(t, "user-1", *story.AuthorID)
		assert.Equal(t, "Rina", story.Author)
		assert.False(t, story.IsAnonymous)
	})

	t.Run("authenticated author may publish anonymously and keep ownership", func(t *testing.T) {
		req := validCreateRequest()
		req.IsAnonymous = true
		story, err := svc.Create(ctx, req, authedActor("user-1", "Rina"))
		require.NoError(t, err)
		require.NotNil(t, story.AuthorID)
		assert.Equal(t, "user-1", *story.AuthorID)
		assert.Equal(t, identity.FallbackAnonymous, story.Author)
		assert.True(t, story.IsAnonymous)
	})
}

func TestUpdateStoryAuthorOnly(t *testing.T) {
	svc, db := newStoryFixture(t)
	ctx := context.Background()

	authorID := "user-1"
	story := seedStory(t, db, func(s *model.Story) {
		s.AuthorID = &authorID
		s.Author = "Rina"
		s.IsAnonymous = false
	})

	req := dto.UpdateStoryRequest{
		Title:   "The Lost Book, Found",
		Content: "I left my notebook on the train and a stranger returned it to my office the next morning, with a kind note.",
	}

	_, err := svc.Update(ctx, story.ID, req, authedActor("user-2", "Maya"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Update(ctx, story.ID, req, pseudoActor("aB3dE6gH9jK2mN5pQ8sT"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.Update(ctx, story.ID, req, authedActor("user-1", "Rina"))
	require.NoError(t, err)
	assert.Equal(t, "The Lost Book, Found", updated.Title)
}

func TestDeleteStoryCascades(t *testing.T) {
	svc, db := newStoryFixture(t)
	ctx := context.Background()

	story := seedStory(t, db, nil)
	require.NoError(t, db.Create(&model.Comment{
		StoryID: story.ID, Author: identity.FallbackAnonymous, IsAnonymous: true, Content: "wow",
	}).Error)
	require.NoError(t, db.Create(&model.Reaction{
		OwnerID: "user-9", StoryID: story.ID, Type: model.ReactionLike,
	}).Error)

	// Anonymous story, pseudo actor: allowed.
	require.NoError(t, svc.Delete(ctx, story.ID, pseudoActor("aB3dE6gH9jK2mN5pQ8sT")))

	_, err := svc.GetByID(ctx, story.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var comments, reactions int64
	require.NoError(t, db.Model(&model.Comment{}).Where("story_id = ?", story.ID).Count(&comments).Error)
	require.NoError(t, db.Model(&model.Reaction{}).Where("story_id = ?", story.ID).Count(&reactions).Error)
	assert.Zero(t, comments, "comments must not survive their story")
	assert.Zero(t, reactions, "reactions must not survive their story")
}

func TestDeleteStoryAuthorization(t *testing.T) {
	svc, db := newStoryFixture(t)
	ctx := context.Background()

	authorID := "user-1"
	owned := seedStory(t, db, func(s *model.Story) {
		s.AuthorID = &authorID
		s.Author = "Rina"
		s.IsAnonymous = false
	})

	// Pseudo actors may only delete anonymous stories.
	err := svc.Delete(ctx, owned.ID, pseudoActor("aB3dE6gH9jK2mN5pQ8sT"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Other accounts may not delete someone else's story.
	err = svc.Delete(ctx, owned.ID, authedActor("user-2", "Maya"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Shadow sessions may not delete at all.
	err = svc.Delete(ctx, owned.ID, shadowActor("guest-1"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// A failed delete leaves the story in place.
	_, err = svc.GetByID(ctx, owned.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owned.ID, authedActor("user-1", "Rina")))
}

func TestListExcludesRejected(t *testing.T) {
	svc, db := newStoryFixture(t)

	seedStory(t, db, nil)
	seedStory(t, db, func(s *model.Story) {
		s.Title = "Rejected Story"
		s.Status = model.StatusRejected
	})

	stories, meta, err := svc.List(context.Background(), dto.StoryListFilter{})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.NotEqual(t, "Rejected Story", stories[0].Title)
	assert.Equal(t, int64(1), meta.TotalItems)
}

func TestListFiltersByTag(t *testing.T) {
	svc, db := newStoryFixture(t)

	seedStory(t, db, func(s *model.Story) { s.Tags = []string{"travel", "serendipity"} })
	seedStory(t, db, func(s *model.Story) { s.Tags = []string{model.DefaultTag} })

	stories, _, err := svc.List(context.Background(), dto.StoryListFilter{Tag: "travel"})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Contains(t, stories[0].Tags, "travel")
}

func TestListSortsByPopularity(t *testing.T) {
	svc, db := newStoryFixture(t)

	seedStory(t, db, func(s *model.Story) {
		s.Title = "Quiet"
		s.Likes = 1
	})
	seedStory(t, db, func(s *model.Story) {
		s.Title = "Loved"
		s.Likes = 5
		s.Loves = 4
	})

	stories, _, err := svc.List(context.Background(), dto.StoryListFilter{SortBy: "popular"})
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "Loved", stories[0].Title)
}

func TestModerate(t *testing.T) {
	svc, db := newStoryFixture(t)
	ctx := context.Background()

	story := seedStory(t, db, func(s *model.Story) { s.Status = model.StatusPending })

	assert.ErrorIs(t, svc.Moderate(ctx, story.ID, "published"), apperror.ErrValidation)
	assert.ErrorIs(t, svc.Moderate(ctx, uuid.New(), model.StatusApproved), apperror.ErrNotFound)

	require.NoError(t, svc.Moderate(ctx, story.ID, model.StatusApproved))
	got, err := svc.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
}

// brokenIndex simulates an unreachable search backend.
type brokenIndex struct{}

func (brokenIndex) IndexStory(ctx context.Context, story *model.Story) error { return nil }
func (brokenIndex) RemoveStory(ctx context.Context, storyID string) error    { return nil }
func (brokenIndex) SearchStories(ctx context.Context, q string, limit int) ([]*model.Story, error) {
	return nil, errors.New("connection refused")
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStoryService(repository.NewStoryRepository(db), brokenIndex{})

	seedStory(t, db, func(s *model.Story) { s.Title = "Airport Reunion" })

	stories, degraded, err := svc.Search(context.Background(), "airport", 10)
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, stories, 1)
	assert.Equal(t, "Airport Reunion", stories[0].Title)

	_, _, err = svc.Search(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
