package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/pkg/reconcile"
)

func TestClientSendsClientID(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client-ID")
		_ = json.NewEncoder(w).Encode(dto.ReactionResult{Reacted: true, Likes: 1})
	}))
	defer srv.Close()

	c := New(srv.URL)
	view := &StoryView{ID: "s1"}
	require.NoError(t, c.React(context.Background(), view, "like"))

	assert.True(t, identity.ValidToken(gotHeader), "requests without a session must carry the client id")

	// Same id on the next request.
	first := gotHeader
	require.NoError(t, c.React(context.Background(), view, "like"))
	assert.Equal(t, first, gotHeader)
}

func TestClientPrefersSessionToken(t *testing.T) {
	var gotAuth, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("X-Client-ID")
		_ = json.NewEncoder(w).Encode(dto.ReactionResult{})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("session-token"))
	require.NoError(t, c.React(context.Background(), &StoryView{ID: "s1"}, "like"))

	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Empty(t, gotClientID)
}

func TestReactOptimistic(t *testing.T) {
	t.Run("keeps server counters on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loveType := "love"
			_ = json.NewEncoder(w).Encode(dto.ReactionResult{
				Reacted: true, Type: &loveType, Likes: 3, Loves: 9,
			})
		}))
		defer srv.Close()

		view := &StoryView{ID: "s1", Likes: 3, Loves: 8}
		require.NoError(t, New(srv.URL).React(context.Background(), view, "love"))

		assert.Equal(t, 3, view.Likes)
		assert.Equal(t, 9, view.Loves)
		assert.True(t, view.Reacted)
		assert.Equal(t, "love", view.Type)
	})

	t.Run("restores the view on failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
		}))
		defer srv.Close()

		view := &StoryView{ID: "s1", Likes: 3, Reacted: true, Type: "like"}
		err := New(srv.URL).React(context.Background(), view, "love")
		require.Error(t, err)

		// Exactly the pre-mutation view, including the old reaction.
		assert.Equal(t, 3, view.Likes)
		assert.Equal(t, 0, view.Loves)
		assert.True(t, view.Reacted)
		assert.Equal(t, "like", view.Type)
	})
}

func TestApplyReaction(t *testing.T) {
	tests := []struct {
		name      string
		start     StoryView
		react     string
		wantLikes int
		wantLoves int
		wantType  string
		wantOn    bool
	}{
		{"fresh like", StoryView{Likes: 2}, "like", 3, 0, "like", true},
		{"toggle off", StoryView{Likes: 3, Reacted: true, Type: "like"}, "like", 2, 0, "", false},
		{"switch like to love", StoryView{Likes: 3, Loves: 1, Reacted: true, Type: "like"}, "love", 2, 2, "love", true},
		{"toggle never goes negative", StoryView{Likes: 0, Reacted: true, Type: "like"}, "like", 0, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.start
			applyReaction(&v, tt.react)
			assert.Equal(t, tt.wantLikes, v.Likes)
			assert.Equal(t, tt.wantLoves, v.Loves)
			assert.Equal(t, tt.wantType, v.Type)
			assert.Equal(t, tt.wantOn, v.Reacted)
		})
	}
}

func TestAddCommentOptimistic(t *testing.T) {
	serverComment := dto.CommentResponse{
		ID:        uuid.New(),
		Author:    "Rina",
		Content:   "same thing happened to me",
		CreatedAt: time.Now(),
	}

	t.Run("placeholder replaced by refetched list", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
				_ = json.NewEncoder(w).Encode(serverComment)
				return
			}
			_ = json.NewEncoder(w).Encode(dto.CommentListResponse{
				Comments: []dto.CommentResponse{serverComment},
			})
		}))
		defer srv.Close()

		view := &StoryView{ID: "s1"}
		require.NoError(t, New(srv.URL).AddComment(context.Background(), view, "same thing happened to me"))

		require.Len(t, view.Comments, 1)
		assert.Equal(t, serverComment.ID.String(), view.Comments[0].ID)
		assert.False(t, view.Comments[0].Pending)
		assert.False(t, reconcile.IsTempID(view.Comments[0].ID))
	})

	t.Run("placeholder removed on failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
		}))
		defer srv.Close()

		existing := CommentView{ID: uuid.NewString(), Content: "older"}
		view := &StoryView{ID: "s1", Comments: []CommentView{existing}}

		err := New(srv.URL).AddComment(context.Background(), view, "newer")
		require.Error(t, err)

		require.Len(t, view.Comments, 1)
		assert.Equal(t, existing.ID, view.Comments[0].ID)
	})
}
