package realtime

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CountsEvent is pushed to subscribers of a story whenever its reaction
// counters change.
type CountsEvent struct {
	StoryID string `json:"story_id"`
	Likes   int    `json:"likes"`
	Loves   int    `json:"loves"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan CountsEvent
}

// Hub fans reaction-counter updates out to websocket subscribers, keyed by
// story id. Delivery is best-effort: slow subscribers are dropped rather
// than allowed to block a mutation path.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	upgrader    websocket.Upgrader
}

func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// PublishCounts implements the reaction service's CountsPublisher.
func (h *Hub) PublishCounts(storyID string, likes, loves int) {
	event := CountsEvent{StoryID: storyID, Likes: likes, Loves: loves}

	h.mu.RLock()
	subs := h.subscribers[storyID]
	var stale []*subscriber
	for sub := range subs {
		select {
		case sub.send <- event:
		default:
			stale = append(stale, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range stale {
		h.remove(storyID, sub)
	}
}

// ServeWS upgrades the request and streams counter events for one story.
func (h *Hub) ServeWS(c *gin.Context) {
	storyID := c.Param("id")
	if storyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "story id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan CountsEvent, 8),
	}
	h.add(storyID, sub)

	go h.writeLoop(storyID, sub)
	h.readLoop(storyID, sub)
}

func (h *Hub) add(storyID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[storyID] == nil {
		h.subscribers[storyID] = make(map[*subscriber]struct{})
	}
	h.subscribers[storyID][sub] = struct{}{}
}

func (h *Hub) remove(storyID string, sub *subscriber) {
	h.mu.Lock()
	subs := h.subscribers[storyID]
	if _, ok := subs[sub]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, storyID)
		}
		close(sub.send)
	}
	h.mu.Unlock()
}

func (h *Hub) writeLoop(storyID string, sub *subscriber) {
	for event := range sub.send {
		if err := sub.conn.WriteJSON(event); err != nil {
			break
		}
	}
	sub.conn.Close()
}

// readLoop drains client frames so pings and close messages are processed;
// the subscription ends when the client hangs up.
func (h *Hub) readLoop(storyID string, sub *subscriber) {
	defer h.remove(storyID, sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// SubscriberCount is a test hook.
func (h *Hub) SubscriberCount(storyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[storyID])
}
