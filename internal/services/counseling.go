package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSessionMinutes = 50
	MinSessionMinutes     = 15
	MaxSessionMinutes     = 180
)

type BookingInput struct {
	CounselorID     string `json:"counselor_id"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
	IsVideo         bool   `json:"is_video"`
	Notes           string `json:"notes"`
}

// SessionUpdate carries the editable session fields; nil means unchanged.
type SessionUpdate struct {
	Status             *string `json:"status"`
	ScheduledAt        *string `json:"scheduled_at"`
	Notes              *string `json:"notes"`
	CancellationReason *string `json:"cancellation_reason"`
}

type CounselingService struct {
	store    CounselingStore
	profiles ProfileStore
	rooms    SessionRooms
	audit    Auditor
	notifier Notifier
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewCounselingService(store CounselingStore, profiles ProfileStore, rooms SessionRooms, audit Auditor, notifier Notifier, log *zap.SugaredLogger) *CounselingService {
	return &CounselingService{
		store:    store,
		profiles: profiles,
		rooms:    rooms,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
}

// Book creates a scheduled session with the caller as patient.
func (s *CounselingService) Book(ctx context.Context, actor Actor, in BookingInput) (models.CounselingSession, error) {
	var errs utils.ValidationErrors
	counselorID, err := uuid.Parse(strings.TrimSpace(in.CounselorID))
	if err != nil {
		errs.Add("counselor_id", "must be a valid id")
	} else if counselorID == actor.ID {
		errs.Add("counselor_id", "you cannot book a session with yourself")
	}
	start := s.parseFutureTime(&errs, "scheduled_at", in.ScheduledAt)
	duration := in.DurationMinutes
	if duration == 0 {
		duration = DefaultSessionMinutes
	}
	if duration < MinSessionMinutes || duration > MaxSessionMinutes {
		errs.Add("duration_minutes", fmt.Sprintf("must be between %d and %d", MinSessionMinutes, MaxSessionMinutes))
	}
	notes := strings.TrimSpace(in.Notes)
	checkLength(&errs, "notes", notes, 2000)
	if !errs.Empty() {
		return models.CounselingSession{}, Invalid(errs)
	}

	counselor, err := s.profiles.GetProfile(ctx, counselorID)
	if errors.Is(err, ErrNotFound) || (err == nil && counselor.Role != models.RoleCounselor) {
		return models.CounselingSession{}, InvalidField("counselor_id", "is not a counselor")
	}
	if err != nil {
		return models.CounselingSession{}, fmt.Errorf("load counselor: %w", err)
	}

	end := start.Add(time.Duration(duration) * time.Minute)
	overlap, err := s.store.HasOverlap(ctx, counselorID, start, end, uuid.Nil)
	if err != nil {
		return models.CounselingSession{}, fmt.Errorf("check overlap: %w", err)
	}
	if overlap {
		return models.CounselingSession{}, slotUnavailable()
	}

	// The store's exclusion constraint settles concurrent bookings of the same slot.
	session, err := s.store.CreateSession(ctx, models.CounselingSession{
		ID:              uuid.New(),
		CounselorID:     counselorID,
		PatientID:       actor.ID,
		ScheduledAt:     start,
		DurationMinutes: duration,
		Status:          models.SessionScheduled,
		IsVideo:         in.IsVideo,
		Notes:           notes,
	})
	if errors.Is(err, ErrSlotTaken) {
		return models.CounselingSession{}, slotUnavailable()
	}
	if err != nil {
		return models.CounselingSession{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Infow("session booked", "session_id", session.ID, "counselor_id", counselorID, "patient_id", actor.ID)
	if err := s.notifier.SessionBooked(ctx, session); err != nil {
		s.log.Warnw("enqueue booking notification failed", "session_id", session.ID, "error", err)
	}
	return session, nil
}

// List returns the caller's sessions. role selects "patient", "counselor" or both.
func (s *CounselingService) List(ctx context.Context, actor Actor, role, status string, limit, offset int) ([]models.CounselingSession, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && role != "patient" && role != "counselor" {
		return nil, InvalidField("role", "must be patient or counselor")
	}
	st := models.SessionStatus(status)
	if status != "" && !st.Valid() {
		return nil, InvalidField("status", "must be scheduled, in_progress, completed or cancelled")
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListSessions(ctx, models.SessionFilter{UserID: actor.ID, AsRole: role, Status: st, Limit: limit, Offset: offset})
}

// Get returns a session visible to participants and admins.
func (s *CounselingService) Get(ctx context.Context, actor Actor, id uuid.UUID) (models.CounselingSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return session, notFoundAs(err, "session")
	}
	if !session.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return models.CounselingSession{}, Forbidden("You are not a participant of this session")
	}
	return session, nil
}

// Update applies a status change, a reschedule and note edits.
func (s *CounselingService) Update(ctx context.Context, actor Actor, id uuid.UUID, upd SessionUpdate) (models.CounselingSession, error) {
	session, err := s.Get(ctx, actor, id)
	if err != nil {
		return session, err
	}
	before := session.Status
	next := session

	if upd.Status != nil {
		target := models.SessionStatus(strings.TrimSpace(*upd.Status))
		if !target.Valid() {
			return session, InvalidField("status", "must be scheduled, in_progress, completed or cancelled")
		}
		if err := checkTransition(session, actor, target); err != nil {
			return session, err
		}
		if target == models.SessionCancelled && before != models.SessionCancelled {
			by := actor.ID
			next.CancelledBy = &by
			if upd.CancellationReason != nil {
				next.CancellationReason = strings.TrimSpace(*upd.CancellationReason)
			}
		}
		next.Status = target
	}

	if upd.ScheduledAt != nil {
		if next.Status != models.SessionScheduled {
			return session, Conflict("SESSION_NOT_SCHEDULED", "Only scheduled sessions can be rescheduled")
		}
		var errs utils.ValidationErrors
		start := s.parseFutureTime(&errs, "scheduled_at", *upd.ScheduledAt)
		if !errs.Empty() {
			return session, Invalid(errs)
		}
		if !start.Equal(session.ScheduledAt) {
			next.ScheduledAt = start
			next.ReminderSentAt = nil
			overlap, err := s.store.HasOverlap(ctx, session.CounselorID, start, next.EndsAt(), session.ID)
			if err != nil {
				return session, fmt.Errorf("check overlap: %w", err)
			}
			if overlap {
				return session, slotUnavailable()
			}
		}
	}

	if upd.Notes != nil {
		next.Notes = strings.TrimSpace(*upd.Notes)
		var errs utils.ValidationErrors
		checkLength(&errs, "notes", next.Notes, 2000)
		if !errs.Empty() {
			return session, Invalid(errs)
		}
	}

	updated, err := s.store.UpdateSession(ctx, next)
	if errors.Is(err, ErrSlotTaken) {
		return session, slotUnavailable()
	}
	if err != nil {
		return session, notFoundAs(err, "session")
	}
	if updated.Status != before || !updated.ScheduledAt.Equal(session.ScheduledAt) {
		s.log.Infow("session updated", "session_id", id, "from", before, "to", updated.Status, "actor", actor.ID)
		if err := s.notifier.SessionStatusChanged(ctx, updated); err != nil {
			s.log.Warnw("enqueue session notification failed", "session_id", id, "error", err)
		}
	}
	if updated.Status.Terminal() && !before.Terminal() {
		if err := s.rooms.Close(ctx, id.String()); err != nil {
			s.log.Warnw("close session room failed", "session_id", id, "error", err)
		}
	}
	return updated, nil
}

// Delete removes a session and then its room history. Deleting a session that
// does not exist succeeds and purges any history left by an earlier failed
// purge, so repeated deletes are safe.
func (s *CounselingService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	session, err := s.store.GetSession(ctx, id)
	if errors.Is(err, ErrNotFound) {
		if err := s.rooms.Purge(ctx, id.String()); err != nil {
			return fmt.Errorf("purge room history: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !session.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return Forbidden("You are not a participant of this session")
	}
	if session.Status == models.SessionInProgress {
		return Conflict("SESSION_IN_PROGRESS", "End the session before deleting it")
	}

	if _, err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.Infow("session deleted", "session_id", id, "actor", actor.ID)
	recordAudit(ctx, s.audit, s.log, models.AuditEvent{
		Kind:       models.AuditSessionDeleted,
		ActorID:    actor.ID.String(),
		TargetType: "counseling_session",
		TargetID:   id.String(),
		Action:     "delete",
		IPAddress:  actor.IP,
		Metadata:   map[string]interface{}{"status": string(session.Status)},
	})

	if err := s.rooms.Purge(ctx, id.String()); err != nil {
		return fmt.Errorf("purge room history: %w", err)
	}
	return nil
}

// CanJoinRoom reports whether the actor may use the session's chat room.
func (s *CounselingService) CanJoinRoom(ctx context.Context, actor Actor, id uuid.UUID) (models.CounselingSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return session, notFoundAs(err, "session")
	}
	if !session.IsParticipant(actor.ID) {
		return session, Forbidden("Only session participants can join the room")
	}
	if session.Status.Terminal() {
		return session, Conflict("SESSION_CLOSED", "This session has ended")
	}
	return session, nil
}

// DueReminders returns scheduled sessions starting within lead that have not been reminded.
func (s *CounselingService) DueReminders(ctx context.Context, lead time.Duration) ([]models.CounselingSession, error) {
	now := s.now().UTC()
	return s.store.DueReminders(ctx, now, now.Add(lead))
}

func (s *CounselingService) MarkReminded(ctx context.Context, id uuid.UUID) error {
	return s.store.MarkReminderSent(ctx, id, s.now().UTC())
}

// checkTransition enforces the session status machine:
// scheduled -> in_progress -> completed, scheduled|in_progress -> cancelled.
func checkTransition(session models.CounselingSession, actor Actor, target models.SessionStatus) error {
	cur := session.Status
	if cur == target {
		return nil
	}
	if cur.Terminal() {
		return Conflict("SESSION_CLOSED", fmt.Sprintf("Session is already %s", cur))
	}
	isCounselor := actor.ID == session.CounselorID

	switch {
	case cur == models.SessionScheduled && target == models.SessionInProgress,
		cur == models.SessionInProgress && target == models.SessionCompleted:
		if !isCounselor {
			return Forbidden("Only the counselor can start or complete a session")
		}
		return nil
	case target == models.SessionCancelled:
		return nil
	default:
		return Conflict("INVALID_TRANSITION", fmt.Sprintf("Cannot change session from %s to %s", cur, target))
	}
}

func slotUnavailable() error {
	return Conflict("SLOT_UNAVAILABLE", "The counselor already has a session at that time")
}

func (s *CounselingService) parseFutureTime(errs *utils.ValidationErrors, field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.Add(field, "is required")
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		errs.Add(field, "must be an RFC 3339 timestamp")
		return time.Time{}
	}
	if !t.After(s.now()) {
		errs.Add(field, "must be in the future")
		return time.Time{}
	}
	return t.UTC()
}
