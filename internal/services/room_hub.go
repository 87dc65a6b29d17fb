package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	roomChannelPrefix  = "room:session:"
	roomChannelPattern = roomChannelPrefix + "*"
	roomBufferSize     = 32
	maxSubscriberRetry = 30 * time.Second
)

// Room event types.
const (
	RoomEventMessage = "message"
	RoomEventJoined  = "joined"
	RoomEventLeft    = "left"
	RoomEventClosed  = "closed"
	RoomEventError   = "error"
)

// RoomEvent is the payload broadcast over Redis and written to WebSocket clients.
type RoomEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id,omitempty"`
	Message   *models.RoomMessage `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// RoomSubscription receives the events of one session room on this instance.
type RoomSubscription struct {
	C         <-chan RoomEvent
	ch        chan RoomEvent
	sessionID string
	hub       *RoomHub
	once      sync.Once
}

// Close detaches the subscription and closes C.
func (s *RoomSubscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

// RoomHub fans room events out to the local subscribers of each session.
// Events travel through Redis pub/sub so every instance sees them.
type RoomHub struct {
	client *redis.Client
	log    *zap.SugaredLogger

	mu    sync.RWMutex
	rooms map[string]map[*RoomSubscription]struct{}
}

func NewRoomHub(client *redis.Client, log *zap.SugaredLogger) *RoomHub {
	return &RoomHub{client: client, log: log, rooms: make(map[string]map[*RoomSubscription]struct{})}
}

func (h *RoomHub) Subscribe(sessionID string) *RoomSubscription {
	ch := make(chan RoomEvent, roomBufferSize)
	sub := &RoomSubscription{C: ch, ch: ch, sessionID: sessionID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*RoomSubscription]struct{})
	}
	h.rooms[sessionID][sub] = struct{}{}
	return sub
}

func (h *RoomHub) unsubscribe(sub *RoomSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[sub.sessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, sub.sessionID)
		}
	}
	close(sub.ch)
}

// Subscribers reports how many local connections are in a room.
func (h *RoomHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Publish sends an event to every instance.
func (h *RoomHub) Publish(ctx context.Context, event RoomEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, roomChannelPrefix+event.SessionID, data).Err()
}

// deliver hands an event to local subscribers. A subscriber whose buffer is
// full misses the event rather than stalling the room.
func (h *RoomHub) deliver(event RoomEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[event.SessionID] {
		select {
		case sub.ch <- event:
		default:
			h.log.Warnw("room subscriber too slow, event dropped", "session_id", event.SessionID, "type", event.Type)
		}
	}
}

// Run consumes the Redis room channels until ctx is done, reconnecting with
// exponential backoff.
func (h *RoomHub) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		err := h.consume(ctx, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return
		}
		h.log.Warnw("room subscriber disconnected", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxSubscriberRetry {
			backoff = maxSubscriberRetry
		}
	}
}

func (h *RoomHub) consume(ctx context.Context, connected func()) error {
	pubsub := h.client.PSubscribe(ctx, roomChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	connected()
	h.log.Infow("room subscriber started", "pattern", roomChannelPattern)

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var event RoomEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Warnw("invalid room event", "channel", msg.Channel, "error", err)
			continue
		}
		h.deliver(event)
	}
}
