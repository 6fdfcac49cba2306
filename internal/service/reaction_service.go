package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

// CountsPublisher receives fresh counters after every successful reaction
// mutation, for live subscribers.
type CountsPublisher interface {
	PublishCounts(storyID string, likes, loves int)
}

type ReactionService interface {
	// React applies the ledger rule for the actor's identity class.
	// Trackable actors (authenticated/shadow) toggle: same type removes the
	// reaction, a different type replaces it. Pseudo actors get a bare
	// counter increment with no stored row, so they can never toggle off.
	React(ctx context.Context, storyID uuid.UUID, reactionType string, actor identity.Identity) (*dto.ReactionResult, error)
	CheckReaction(ctx context.Context, storyID uuid.UUID, actor identity.Identity) (*dto.ReactionState, error)
	GetCounts(ctx context.Context, storyID uuid.UUID) (likes, loves int, err error)
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	storyRepo    repository.StoryRepository
	redisClient  *redis.Client
	publisher    CountsPublisher
}

func NewReactionService(reactionRepo repository.ReactionRepository, storyRepo repository.StoryRepository, redisClient *redis.Client, publisher CountsPublisher) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		storyRepo:    storyRepo,
		redisClient:  redisClient,
		publisher:    publisher,
	}
}

func countsKey(storyID uuid.UUID) string {
	return fmt.Sprintf("story_counts:%s", storyID.String())
}

func (s *reactionService) React(ctx context.Context, storyID uuid.UUID, reactionType string, actor identity.Identity) (*dto.ReactionResult, error) {
	if reactionType != model.ReactionLike && reactionType != model.ReactionLove {
		return nil, fmt.Errorf("%w: unknown reaction type %q", apperror.ErrValidation, reactionType)
	}

	// Story must exist before any counter is touched.
	if _, err := s.storyRepo.FindByID(ctx, storyID); err != nil {
		return nil, err
	}

	if !actor.Trackable() {
		return s.reactUntracked(ctx, storyID, reactionType)
	}
	return s.reactTracked(ctx, storyID, reactionType, actor)
}

// reactUntracked is the pseudo-identity path: no row lookup, no row storage,
// every call is a fresh increment. Intentionally non-idempotent.
func (s *reactionService) reactUntracked(ctx context.Context, storyID uuid.UUID, reactionType string) (*dto.ReactionResult, error) {
	likeDelta, loveDelta := deltas("", reactionType)
	story, err := s.storyRepo.AdjustCounts(ctx, storyID, likeDelta, loveDelta)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, story)

	t := reactionType
	return &dto.ReactionResult{Reacted: true, Type: &t, Likes: story.Likes, Loves: story.Loves}, nil
}

func (s *reactionService) reactTracked(ctx context.Context, storyID uuid.UUID, reactionType string, actor identity.Identity) (*dto.ReactionResult, error) {
	existing, err := s.reactionRepo.Find(ctx, actor.OwnerKey, storyID)
	if err != nil {
		return nil, err
	}

	switch {
	case existing == nil:
		// First reaction from this owner.
		reaction := &model.Reaction{
			OwnerID: actor.OwnerKey,
			StoryID: storyID,
			Type:    reactionType,
		}
		if err := s.reactionRepo.Create(ctx, reaction); err != nil {
			return nil, err
		}
		likeDelta, loveDelta := deltas("", reactionType)
		story, err := s.storyRepo.AdjustCounts(ctx, storyID, likeDelta, loveDelta)
		if err != nil {
			return nil, err
		}
		s.afterMutation(ctx, story)

		t := reactionType
		return &dto.ReactionResult{Reacted: true, Type: &t, Likes: story.Likes, Loves: story.Loves}, nil

	case existing.Type == reactionType:
		// Same type again: toggle off.
		if err := s.reactionRepo.Delete(ctx, existing); err != nil {
			return nil, err
		}
		likeDelta, loveDelta := deltas(reactionType, "")
		story, err := s.storyRepo.AdjustCounts(ctx, storyID, likeDelta, loveDelta)
		if err != nil {
			return nil, err
		}
		s.afterMutation(ctx, story)

		return &dto.ReactionResult{Reacted: false, Type: nil, Likes: story.Likes, Loves: story.Loves}, nil

	default:
		// Different type: replace, never a second row.
		oldType := existing.Type
		existing.Type = reactionType
		if err := s.reactionRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		likeDelta, loveDelta := deltas(oldType, reactionType)
		story, err := s.storyRepo.AdjustCounts(ctx, storyID, likeDelta, loveDelta)
		if err != nil {
			return nil, err
		}
		s.afterMutation(ctx, story)

		t := reactionType
		return &dto.ReactionResult{Reacted: true, Type: &t, Likes: story.Likes, Loves: story.Loves}, nil
	}
}

func (s *reactionService) CheckReaction(ctx context.Context, storyID uuid.UUID, actor identity.Identity) (*dto.ReactionState, error) {
	// Pseudo reactions keep no row, so there is never a prior state to report.
	if !actor.Trackable() {
		return &dto.ReactionState{Reacted: false, Type: nil}, nil
	}

	existing, err := s.reactionRepo.Find(ctx, actor.OwnerKey, storyID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &dto.ReactionState{Reacted: false, Type: nil}, nil
	}
	t := existing.Type
	return &dto.ReactionState{Reacted: true, Type: &t}, nil
}

func (s *reactionService) GetCounts(ctx context.Context, storyID uuid.UUID) (int, int, error) {
	// 1. Try the Redis mirror.
	if s.redisClient != nil {
		val, err := s.redisClient.HGetAll(ctx, countsKey(storyID)).Result()
		if err == nil && len(val) > 0 {
			likes, _ := strconv.Atoi(val["likes"])
			loves, _ := strconv.Atoi(val["loves"])
			return likes, loves, nil
		}
	}

	// 2. Cache miss: the story row is the source of truth; repopulate.
	story, err := s.storyRepo.FindByID(ctx, storyID)
	if err != nil {
		return 0, 0, err
	}
	s.mirrorCounts(ctx, story)
	return story.Likes, story.Loves, nil
}

// afterMutation refreshes the Redis mirror and notifies live subscribers.
// Both are best-effort; the story row already holds the truth.
func (s *reactionService) afterMutation(ctx context.Context, story *model.Story) {
	s.mirrorCounts(ctx, story)
	if s.publisher != nil {
		s.publisher.PublishCounts(story.ID.String(), story.Likes, story.Loves)
	}
}

func (s *reactionService) mirrorCounts(ctx context.Context, story *model.Story) {
	if s.redisClient == nil {
		return
	}
	key := countsKey(story.ID)
	pipe := s.redisClient.Pipeline()
	pipe.HSet(ctx, key, "likes", story.Likes, "loves", story.Loves)
	// TTL so idle stories age out of the cache
	pipe.Expire(ctx, key, 7*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("redis counts update failed: %v", err)
	}
}

// deltas converts an old/new reaction type pair into counter adjustments.
// Empty string means "no reaction" on that side.
func deltas(oldType, newType string) (likeDelta, loveDelta int) {
	switch oldType {
	case model.ReactionLike:
		likeDelta--
	case model.ReactionLove:
		loveDelta--
	}
	switch newType {
	case model.ReactionLike:
		likeDelta++
	case model.ReactionLove:
		loveDelta++
	}
	return likeDelta, loveDelta
}
