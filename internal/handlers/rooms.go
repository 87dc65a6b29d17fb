package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	roomReadLimit  = 16 * 1024
	roomPongWait   = 90 * time.Second
	roomPingPeriod = 30 * time.Second
	roomWriteWait  = 10 * time.Second
)

// RoomBroker is the live side of a session room.
type RoomBroker interface {
	Subscribe(sessionID string) *services.RoomSubscription
	Publish(ctx context.Context, event services.RoomEvent) error
}

type RoomSender interface {
	Send(ctx context.Context, sessionID uuid.UUID, sender services.Actor, text string) (models.RoomMessage, error)
}

type RoomHistoryLoader interface {
	Load(ctx context.Context, sessionID string, before int64, limit int64) ([]models.RoomMessage, bool, error)
}

type RoomHandler struct {
	sessions CounselingAPI
	broker   RoomBroker
	sender   RoomSender
	history  RoomHistoryLoader
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

func NewRoomHandler(sessions CounselingAPI, rooms *services.Rooms, allowedOrigins []string, log *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{
		sessions: sessions,
		broker:   rooms.Hub,
		sender:   rooms,
		history:  rooms.History,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// originChecker admits requests without an Origin header (non-browser clients)
// and browser requests from the CORS allow-list.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSpace(o), origin) {
				return true
			}
		}
		return false
	}
}

// RoomHistoryResponse is one page of room messages, oldest first.
type RoomHistoryResponse struct {
	Messages []models.RoomMessage `json:"messages"`
	HasMore  bool                 `json:"has_more"`
}

// Messages pages back through a room's history.
// Query params: before (message id, exclusive), limit (default 50, max 100).
func (h *RoomHandler) Messages(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	var before, limit int64
	if raw := q.Get("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			httpx.BadRequest(w, "before must be a message id")
			return
		}
		before = v
	}
	if raw := q.Get("limit"); raw != "" {
		limit, _ = strconv.ParseInt(raw, 10, 64)
	}

	if _, err := h.sessions.Get(r.Context(), a, id); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	msgs, hasMore, err := h.history.Load(r.Context(), id.String(), before, limit)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, RoomHistoryResponse{Messages: msgs, HasMore: hasMore})
}

// roomClientMessage is a frame sent by the browser.
type roomClientMessage struct {
	Type string `json:"type"` // "message" or "ping"
	Text string `json:"text,omitempty"`
}

// Join upgrades to a WebSocket bound to one session room. Only the two
// participants of a scheduled or in-progress session may join.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	session, err := h.sessions.CanJoinRoom(r.Context(), a, id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()

	// Detached from r.Context(); the connection is hijacked.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	roomID := session.ID.String()
	sub := h.broker.Subscribe(roomID)
	defer sub.Close()

	out := make(chan services.RoomEvent, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, sub.C, out)
	}()

	h.publish(ctx, services.RoomEvent{Type: services.RoomEventJoined, SessionID: roomID, UserID: a.ID.String()})
	defer h.publish(context.Background(), services.RoomEvent{Type: services.RoomEventLeft, SessionID: roomID, UserID: a.ID.String()})

	h.readLoop(ctx, conn, session, a, out)
	cancel()
	<-done
}

// readLoop handles client frames until the connection fails or ctx ends.
func (h *RoomHandler) readLoop(ctx context.Context, conn *websocket.Conn, session models.CounselingSession, a services.Actor, out chan<- services.RoomEvent) {
	conn.SetReadLimit(roomReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(roomPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(roomPongWait))
	})

	roomID := session.ID.String()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugw("room connection closed", "session_id", roomID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(roomPongWait))

		var msg roomClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(ctx, out, services.RoomEvent{Type: services.RoomEventError, SessionID: roomID, Error: "invalid frame"})
			continue
		}
		switch msg.Type {
		case "message":
			if _, err := h.sender.Send(ctx, session.ID, a, msg.Text); err != nil {
				status, _, text, _ := httpx.MapError(err)
				if status >= http.StatusInternalServerError {
					h.log.Errorw("room message failed", "session_id", roomID, "error", err)
				}
				h.reply(ctx, out, services.RoomEvent{Type: services.RoomEventError, SessionID: roomID, Error: text})
			}
		case "ping":
		default:
			h.reply(ctx, out, services.RoomEvent{Type: services.RoomEventError, SessionID: roomID, Error: "unknown frame type"})
		}
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *RoomHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan services.RoomEvent, out <-chan services.RoomEvent) {
	ticker := time.NewTicker(roomPingPeriod)
	defer ticker.Stop()

	write := func(evt services.RoomEvent) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(roomWriteWait))
		return conn.WriteJSON(evt) == nil
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(roomWriteWait))
			return
		case evt, ok := <-events:
			if !ok || !write(evt) {
				_ = conn.Close()
				return
			}
			if evt.Type == services.RoomEventClosed {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), time.Now().Add(roomWriteWait))
				_ = conn.Close()
				return
			}
		case evt := <-out:
			if !write(evt) {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(roomWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *RoomHandler) reply(ctx context.Context, out chan<- services.RoomEvent, evt services.RoomEvent) {
	evt.Timestamp = time.Now().UTC()
	select {
	case out <- evt:
	case <-ctx.Done():
	}
}

func (h *RoomHandler) publish(ctx context.Context, evt services.RoomEvent) {
	if err := h.broker.Publish(ctx, evt); err != nil {
		h.log.Warnw("room publish failed", "session_id", evt.SessionID, "type", evt.Type, "error", err)
	}
}
