package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sodfa-app/sodfa-server/internal/model"
)

const storiesIndex = "stories"

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

// NewMeiliSearchService wires the Meilisearch-backed story index.
func NewMeiliSearchService(client meilisearch.ServiceManager) SearchIndex {
	s := &meiliSearchService{client: client}
	s.initIndex()
	return s
}

func (s *meiliSearchService) initIndex() {
	filterable := []string{"status", "tags"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(storiesIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update stories filterable attributes: %v", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(storiesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update stories sortable attributes: %v", err)
	}

	log.Println("Meilisearch stories index initialized")
}

type meiliStoryDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	IsAnonymous bool     `json:"is_anonymous"`
	Likes       int      `json:"likes"`
	Loves       int      `json:"loves"`
	Status      string   `json:"status"`
	CreatedAt   int64    `json:"created_at"`
}

func (s *meiliSearchService) IndexStory(ctx context.Context, story *model.Story) error {
	doc := meiliStoryDoc{
		ID:          story.ID.String(),
		Title:       story.Title,
		Content:     story.Content,
		Excerpt:     story.Excerpt,
		Tags:        story.Tags,
		Author:      story.Author,
		IsAnonymous: story.IsAnonymous,
		Likes:       story.Likes,
		Loves:       story.Loves,
		Status:      story.Status,
		CreatedAt:   story.CreatedAt.Unix(),
	}

	task, err := s.client.Index(storiesIndex).AddDocuments([]meiliStoryDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed story %s, task id: %d", story.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) RemoveStory(ctx context.Context, storyID string) error {
	_, err := s.client.Index(storiesIndex).DeleteDocument(storyID)
	return err
}

func (s *meiliSearchService) SearchStories(ctx context.Context, q string, limit int) ([]*model.Story, error) {
	resp, err := s.client.Index(storiesIndex).Search(q, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: `status != "` + model.StatusRejected + `"`,
	})
	if err != nil {
		return nil, err
	}

	stories := make([]*model.Story, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc meiliStoryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		stories = append(stories, &model.Story{
			ID:          id,
			Title:       doc.Title,
			Content:     doc.Content,
			Excerpt:     doc.Excerpt,
			Tags:        doc.Tags,
			Author:      doc.Author,
			IsAnonymous: doc.IsAnonymous,
			Likes:       doc.Likes,
			Loves:       doc.Loves,
			Status:      doc.Status,
			CreatedAt:   time.Unix(doc.CreatedAt, 0),
		})
	}
	return stories, nil
}

func strPtr(s string) *string {
	return &s
}
