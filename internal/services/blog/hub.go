package blog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"blog-pulse/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AllPosts is the filter value for subscribers that want every post's events
var AllPosts = bson.NilObjectID

// Subscriber represents a connection that can receive post events
type Subscriber struct {
	PostID bson.ObjectID
	Ch     chan PostEvent
	Done   chan struct{}
}

// ConnInfo holds connection metadata
type ConnInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

// postSubs holds subscribers for one post, or for AllPosts
type postSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]ConnInfo
}

// Hub fans post events out to WebSocket subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*postSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     uint64
}

// NewHub creates a new event hub with configurable buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[bson.ObjectID]*postSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a connection for events of postID (AllPosts for everything)
func (h *Hub) Subscribe(connULID ulid.ULID, postID bson.ObjectID) (*Subscriber, func()) {
	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("subscribing connection", "conn_id", connULID.String(), "post_id", postID.Hex())
	}

	sub := &Subscriber{
		PostID: postID,
		Ch:     make(chan PostEvent, h.bufferSize),
		Done:   make(chan struct{}),
	}

	h.mu.Lock()
	bucket, exists := h.subscribers[postID]
	if !exists {
		bucket = &postSubs{m: make(map[ulid.ULID]ConnInfo)}
		h.subscribers[postID] = bucket
	}
	h.connIndex[connULID] = postID
	// bucket lock taken under h.mu so Unsubscribe cannot drop an empty bucket we are filling
	bucket.mu.Lock()
	bucket.m[connULID] = ConnInfo{ID: connULID, ConnectedAt: time.Now(), Subscriber: sub}
	bucket.mu.Unlock()
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(connULID) }
}

// Unsubscribe removes a subscriber and closes its channels
func (h *Hub) Unsubscribe(connULID ulid.ULID) {
	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("unsubscribing connection", "conn_id", connULID.String())
	}

	h.mu.Lock()
	pid, ok := h.connIndex[connULID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connIndex, connULID)

	bucket := h.subscribers[pid]
	var info ConnInfo
	var exists bool
	if bucket != nil {
		bucket.mu.Lock()
		info, exists = bucket.m[connULID]
		delete(bucket.m, connULID)
		if len(bucket.m) == 0 {
			delete(h.subscribers, pid)
		}
		bucket.mu.Unlock()
	}
	h.mu.Unlock()

	if exists {
		close(info.Subscriber.Ch)
		close(info.Subscriber.Done)
	}
}

// Broadcast delivers ev to subscribers of ev.PostID and to AllPosts subscribers
func (h *Hub) Broadcast(_ context.Context, ev PostEvent) {
	if ev.PostID.IsZero() {
		return
	}

	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("broadcasting event", "post_id", ev.PostID.Hex(), "event_type", ev.Type)
	}

	h.deliver(h.bucket(ev.PostID), ev, log)
	h.deliver(h.bucket(AllPosts), ev, log)
}

func (h *Hub) deliver(bucket *postSubs, ev PostEvent, log *slog.Logger) {
	if bucket == nil {
		return
	}

	bucket.mu.RLock()
	defer bucket.mu.RUnlock()
	for _, info := range bucket.m {
		sendOrDrop(info.Subscriber.Ch, ev, func() {
			atomic.AddUint64(&h.dropped, 1)
			log.Warn("outbox full, dropping event", "conn_id", info.ID.String(), "post_id", ev.PostID.Hex(), "event_type", ev.Type)
		})
	}
}

// GetSubscriberCount returns the current number of subscribers
func (h *Hub) GetSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, bucket := range h.subscribers {
		bucket.mu.RLock()
		total += len(bucket.m)
		bucket.mu.RUnlock()
	}
	return total
}

// sendOrDrop is the only place that can decide to drop an event.
func sendOrDrop(ch chan PostEvent, ev PostEvent, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

// Stats returns subscriber and dropped-event counts for observability and tests.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.GetSubscriberCount(), atomic.LoadUint64(&h.dropped)
}

func (h *Hub) bucket(pid bson.ObjectID) *postSubs {
	h.mu.RLock()
	b := h.subscribers[pid]
	h.mu.RUnlock()
	return b
}
