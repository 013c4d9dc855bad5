package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

const EventFeedChannel = "events:feed"

const (
	FeedEventCreated = "event.created"
	FeedEventUpdated = "event.updated"
	FeedEventDeleted = "event.deleted"
)

// FeedMessage is the payload broadcast over Redis and WebSocket.
type FeedMessage struct {
	Type      string        `json:"type"`
	EventID   string        `json:"eventId"`
	Event     *models.Event `json:"event,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// FeedConn is the part of a WebSocket connection the feed writes to.
type FeedConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const (
	feedWriteWait  = 10 * time.Second
	feedSendBuffer = 16
)

// feedClient owns one connection; only its writer goroutine touches conn.
type feedClient struct {
	conn FeedConn
	send chan FeedMessage
}

// EventFeed fans event changes out to every WebSocket connected to this
// instance. With Redis, messages travel through EventFeedChannel so all
// instances see them; without it, they stay local.
type EventFeed struct {
	rdb *redis.Client

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

func NewEventFeed(rdb *redis.Client) *EventFeed {
	return &EventFeed{rdb: rdb, clients: make(map[*feedClient]struct{})}
}

// Register adds conn to the local fan-out and returns a func that removes it.
func (f *EventFeed) Register(conn FeedConn) (unregister func()) {
	c := &feedClient{conn: conn, send: make(chan FeedMessage, feedSendBuffer)}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()

	go f.writeLoop(c)
	return func() { f.remove(c) }
}

// remove drops c and stops its writer. Safe to call more than once.
func (f *EventFeed) remove(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; !ok {
		return
	}
	delete(f.clients, c)
	close(c.send)
}

func (f *EventFeed) writeLoop(c *feedClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("error writing feed message to websocket: %v", err)
			// Closing makes the handler's read loop return.
			c.conn.Close()
			f.remove(c)
			for range c.send {
			}
			return
		}
	}
}

func (f *EventFeed) ConnectionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Publish announces a change. Failures are logged; the write that caused the
// change has already succeeded.
func (f *EventFeed) Publish(ctx context.Context, kind string, ev *models.Event, eventID string) {
	if f == nil {
		return
	}
	msg := FeedMessage{Type: kind, EventID: eventID, Event: ev, Timestamp: time.Now().UTC()}
	if f.rdb == nil {
		f.fanOut(msg)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal feed message: %v", err)
		return
	}
	if err := f.rdb.Publish(ctx, EventFeedChannel, data).Err(); err != nil {
		log.Printf("⚠️  WARNING: failed to publish %s for event %s: %v", kind, eventID, err)
	}
}

// fanOut queues msg for every client without blocking. A client whose queue
// is full is too slow to keep up and is disconnected.
func (f *EventFeed) fanOut(msg FeedMessage) {
	var slow []*feedClient
	f.mu.RLock()
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	f.mu.RUnlock()

	for _, c := range slow {
		log.Printf("⚠️  WARNING: event feed client fell behind, disconnecting")
		c.conn.Close()
		f.remove(c)
	}
}

// Run relays EventFeedChannel to local connections until ctx ends,
// resubscribing with backoff when Redis drops the subscription.
func (f *EventFeed) Run(ctx context.Context) {
	if f.rdb == nil {
		log.Println("Redis client not initialized; event feed is local only")
		return
	}

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := f.rdb.Subscribe(ctx, EventFeedChannel)
			defer pubsub.Close()

			log.Printf("✅ Event feed subscriber started (channel: %s)", EventFeedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis subscriber error: %v", err)
					timer := time.NewTimer(backoff)
					select {
					case <-ctx.Done():
						timer.Stop()
						return
					case <-timer.C:
					}
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}
				backoff = time.Second

				var fm FeedMessage
				if err := json.Unmarshal([]byte(msg.Payload), &fm); err != nil {
					log.Printf("failed to unmarshal feed message: %v", err)
					continue
				}
				f.fanOut(fm)
			}
		}()
	}
}
