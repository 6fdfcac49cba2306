// Package client is a small Go SDK for the sodfa API. It manages the
// persistent client id exactly like the web client does, and exposes
// optimistic reaction and comment mutations that reconcile local view
// state against the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/pkg/reconcile"
)

// Client talks to a sodfa server. The zero value is not usable; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ids        *identity.Provider
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithIdentityStore sets where the persistent client id lives. Defaults to
// an in-memory store, which means a fresh pseudo identity per process.
func WithIdentityStore(store identity.Store) Option {
	return func(c *Client) { c.ids = identity.NewProvider(store) }
}

// WithToken sets a session token obtained from Login, SignUp or Guest.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		ids:        identity.NewProvider(identity.NewMemStore()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StoryView is the client-side view of one story page: the counters and
// the actor's reaction, plus the comment list as displayed.
type StoryView struct {
	ID       string
	Likes    int
	Loves    int
	Reacted  bool
	Type     string
	Comments []CommentView
}

// CommentView is one displayed comment. Pending comments carry a temp-
// prefixed ID until the server assigns the real one.
type CommentView struct {
	ID        string
	Author    string
	Content   string
	CreatedAt time.Time
	Pending   bool
}

func toCommentView(c dto.CommentResponse) CommentView {
	return CommentView{
		ID:        c.ID.String(),
		Author:    c.Author,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func cloneStoryView(v StoryView) StoryView {
	v.Comments = append([]CommentView(nil), v.Comments...)
	return v
}

// apiError is the server's error envelope.
type apiError struct {
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if clientID, err := c.ids.GetOrCreate(); err == nil && clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// SignUp registers an account and keeps the returned session token.
func (c *Client) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Login authenticates and keeps the returned session token.
func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Guest opens an ephemeral anonymous session and keeps its token.
func (c *Client) Guest(ctx context.Context) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/guest", nil, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Logout drops the session token; requests fall back to the client id.
func (c *Client) Logout() {
	c.token = ""
}

// CreateStory submits a story. It lands in the moderation queue.
func (c *Client) CreateStory(ctx context.Context, req dto.CreateStoryRequest) (*model.Story, error) {
	var out model.Story
	if err := c.do(ctx, http.MethodPost, "/api/stories", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStory fetches one story and the actor's current reaction on it,
// assembled into a StoryView ready for the optimistic mutations below.
func (c *Client) GetStory(ctx context.Context, id string) (*StoryView, error) {
	var story model.Story
	if err := c.do(ctx, http.MethodGet, "/api/stories/"+id, nil, &story); err != nil {
		return nil, err
	}

	view := &StoryView{
		ID:    story.ID.String(),
		Likes: story.Likes,
		Loves: story.Loves,
	}

	var state dto.ReactionState
	if err := c.do(ctx, http.MethodGet, "/api/stories/"+id+"/reactions/me", nil, &state); err == nil {
		view.Reacted = state.Reacted
		if state.Type != nil {
			view.Type = *state.Type
		}
	}

	var comments dto.CommentListResponse
	if err := c.do(ctx, http.MethodGet, "/api/stories/"+id+"/comments", nil, &comments); err == nil {
		for _, cm := range comments.Comments {
			view.Comments = append(view.Comments, toCommentView(cm))
		}
	}

	return view, nil
}

// ListStories fetches a page of approved stories.
func (c *Client) ListStories(ctx context.Context, filter dto.StoryListFilter) ([]model.Story, *dto.PaginationMeta, error) {
	q := url.Values{}
	if filter.Tag != "" {
		q.Set("tag", filter.Tag)
	}
	if filter.SortBy != "" {
		q.Set("sort_by", filter.SortBy)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/stories"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Data []model.Story       `json:"data"`
		Meta *dto.PaginationMeta `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Meta, nil
}

// DeleteStory removes a story and everything attached to it.
func (c *Client) DeleteStory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/stories/"+id, nil, nil)
}

// React toggles or switches the actor's reaction, updating view in place
// before the request goes out. On failure the view is restored exactly;
// on success the server's counters replace the tentative ones.
func (c *Client) React(ctx context.Context, view *StoryView, reactionType string) error {
	return reconcile.Do(ctx, view, cloneStoryView, func(v *StoryView) {
		applyReaction(v, reactionType)
	}, func(ctx context.Context) error {
		var result dto.ReactionResult
		err := c.do(ctx, http.MethodPost, "/api/stories/"+view.ID+"/reactions", dto.ReactionRequest{Type: reactionType}, &result)
		if err != nil {
			return err
		}
		view.Likes = result.Likes
		view.Loves = result.Loves
		view.Reacted = result.Reacted
		view.Type = ""
		if result.Type != nil {
			view.Type = *result.Type
		}
		return nil
	})
}

// applyReaction mirrors the server's toggle/switch arithmetic so the
// tentative counters match what the response will carry.
func applyReaction(v *StoryView, reactionType string) {
	bump := func(t string, delta int) {
		switch t {
		case model.ReactionLike:
			v.Likes = clampZero(v.Likes + delta)
		case model.ReactionLove:
			v.Loves = clampZero(v.Loves + delta)
		}
	}

	switch {
	case !v.Reacted:
		bump(reactionType, 1)
		v.Reacted = true
		v.Type = reactionType
	case v.Type == reactionType:
		bump(reactionType, -1)
		v.Reacted = false
		v.Type = ""
	default:
		bump(v.Type, -1)
		bump(reactionType, 1)
		v.Type = reactionType
	}
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// AddComment prepends a placeholder comment with a temp- id and posts the
// comment. On success the placeholder is discarded in favor of the
// refetched authoritative list; on failure the original list is restored.
func (c *Client) AddComment(ctx context.Context, view *StoryView, text string) error {
	tempID := reconcile.TempID()

	return reconcile.Do(ctx, view, cloneStoryView, func(v *StoryView) {
		placeholder := CommentView{
			ID:        tempID,
			Content:   text,
			CreatedAt: time.Now(),
			Pending:   true,
		}
		v.Comments = append([]CommentView{placeholder}, v.Comments...)
	}, func(ctx context.Context) error {
		var created dto.CommentResponse
		err := c.do(ctx, http.MethodPost, "/api/stories/"+view.ID+"/comments", dto.AddCommentRequest{Text: text}, &created)
		if err != nil {
			return err
		}

		var listed dto.CommentListResponse
		if err := c.do(ctx, http.MethodGet, "/api/stories/"+view.ID+"/comments", nil, &listed); err == nil {
			fresh := make([]CommentView, 0, len(listed.Comments))
			for _, cm := range listed.Comments {
				fresh = append(fresh, toCommentView(cm))
			}
			view.Comments = fresh
			return nil
		}

		// Refetch failed but the comment exists; settle for swapping the
		// placeholder in place.
		for i := range view.Comments {
			if view.Comments[i].ID == tempID {
				view.Comments[i] = toCommentView(created)
				break
			}
		}
		return nil
	})
}

// ClientID returns the persistent client id, creating it on first use.
func (c *Client) ClientID() (string, error) {
	return c.ids.GetOrCreate()
}
