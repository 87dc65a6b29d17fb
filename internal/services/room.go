package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

const maxRoomMessageLength = 2000

// SessionGetter loads a counseling session.
type SessionGetter interface {
	GetSession(ctx context.Context, id uuid.UUID) (models.CounselingSession, error)
}

// Rooms ties the live hub to the stored history of counseling session rooms.
type Rooms struct {
	Sessions SessionGetter
	Hub      *RoomHub
	History  *RoomHistory
}

// Send stores a message and broadcasts it to the room. The session is reloaded
// on every message so a room stops accepting messages once the session ends.
func (r *Rooms) Send(ctx context.Context, sessionID uuid.UUID, sender Actor, text string) (models.RoomMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.RoomMessage{}, InvalidField("text", "is required")
	}
	if utf8.RuneCountInString(text) > maxRoomMessageLength {
		return models.RoomMessage{}, InvalidField("text", fmt.Sprintf("must be at most %d characters", maxRoomMessageLength))
	}
	session, err := r.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return models.RoomMessage{}, notFoundAs(err, "session")
	}
	if !session.IsParticipant(sender.ID) {
		return models.RoomMessage{}, Forbidden("Only session participants can use the room")
	}
	if session.Status.Terminal() {
		return models.RoomMessage{}, Conflict("SESSION_CLOSED", "This session has ended")
	}

	msg, err := r.History.Save(ctx, models.RoomMessage{
		SessionID:  session.ID.String(),
		SenderID:   sender.ID.String(),
		SenderName: sender.Name,
		Text:       text,
	})
	if err != nil {
		return models.RoomMessage{}, err
	}
	if err := r.Hub.Publish(ctx, RoomEvent{Type: RoomEventMessage, SessionID: msg.SessionID, UserID: msg.SenderID, Message: &msg}); err != nil {
		return msg, fmt.Errorf("publish room message: %w", err)
	}
	return msg, nil
}

// Close tells connected participants the room is closed on every instance.
func (r *Rooms) Close(ctx context.Context, sessionID string) error {
	return r.Hub.Publish(ctx, RoomEvent{Type: RoomEventClosed, SessionID: sessionID})
}

// Purge deletes a room's history and closes the room.
func (r *Rooms) Purge(ctx context.Context, sessionID string) error {
	if err := r.History.Purge(ctx, sessionID); err != nil {
		return err
	}
	return r.Close(ctx, sessionID)
}
