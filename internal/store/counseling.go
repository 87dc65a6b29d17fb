package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
)

const sessionSelect = `
	SELECT s.id, s.counselor_id, COALESCE(c.display_name, '') AS counselor_name,
		s.patient_id, COALESCE(p.display_name, '') AS patient_name,
		s.scheduled_at, s.duration_minutes, s.status, s.is_video, s.notes,
		s.cancelled_by, s.cancellation_reason, s.reminder_sent_at, s.created_at, s.updated_at
	FROM counseling_sessions s
	LEFT JOIN profiles c ON c.id = s.counselor_id
	LEFT JOIN profiles p ON p.id = s.patient_id`

func (s *Store) CreateSession(ctx context.Context, cs models.CounselingSession) (models.CounselingSession, error) {
	var id uuid.UUID
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO counseling_sessions (counselor_id, patient_id, scheduled_at, duration_minutes, status, is_video, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		cs.CounselorID, cs.PatientID, cs.ScheduledAt, cs.DurationMinutes, cs.Status, cs.IsVideo, cs.Notes,
	).Scan(&id)
	if err != nil {
		return models.CounselingSession{}, mapErr(err)
	}
	return s.GetSession(ctx, id)
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (models.CounselingSession, error) {
	var cs models.CounselingSession
	err := s.db.GetContext(ctx, &cs, sessionSelect+` WHERE s.id = $1`, id)
	return cs, mapErr(err)
}

// ListSessions returns a user's sessions, soonest first. A nil UserID lists everyone's.
func (s *Store) ListSessions(ctx context.Context, f models.SessionFilter) ([]models.CounselingSession, error) {
	var userClause string
	switch f.AsRole {
	case "patient":
		userClause = `s.patient_id = $1`
	case "counselor":
		userClause = `s.counselor_id = $1`
	default:
		userClause = `(s.patient_id = $1 OR s.counselor_id = $1)`
	}
	out := []models.CounselingSession{}
	err := s.db.SelectContext(ctx, &out, sessionSelect+`
		WHERE ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR `+userClause+`)
		  AND ($2::text = '' OR s.status = $2)
		ORDER BY s.scheduled_at ASC
		LIMIT $3 OFFSET $4`,
		f.UserID, string(f.Status), f.Limit, f.Offset)
	return out, mapErr(err)
}

func (s *Store) UpdateSession(ctx context.Context, cs models.CounselingSession) (models.CounselingSession, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE counseling_sessions SET
			scheduled_at = $2, duration_minutes = $3, status = $4, is_video = $5, notes = $6,
			cancelled_by = $7, cancellation_reason = $8, reminder_sent_at = $9, updated_at = NOW()
		WHERE id = $1`,
		cs.ID, cs.ScheduledAt, cs.DurationMinutes, cs.Status, cs.IsVideo, cs.Notes,
		cs.CancelledBy, cs.CancellationReason, cs.ReminderSentAt,
	)
	if err != nil {
		return models.CounselingSession{}, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.CounselingSession{}, services.ErrNotFound
	}
	return s.GetSession(ctx, cs.ID)
}

func (s *Store) HasOverlap(ctx context.Context, counselorID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM counseling_sessions
			WHERE counselor_id = $1
			  AND status <> 'cancelled'
			  AND id <> $4
			  AND scheduled_at < $3
			  AND scheduled_at + duration_minutes * INTERVAL '1 minute' > $2
		)`, counselorID, start, end, exclude)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

// DeleteSession removes the row. Deleting a missing row is not an error.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM counseling_sessions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return deleted, nil
}

// DueReminders lists scheduled sessions starting in [from, to) that have not been reminded.
func (s *Store) DueReminders(ctx context.Context, from, to time.Time) ([]models.CounselingSession, error) {
	out := []models.CounselingSession{}
	err := s.db.SelectContext(ctx, &out, sessionSelect+`
		WHERE s.status = 'scheduled'
		  AND s.reminder_sent_at IS NULL
		  AND s.scheduled_at >= $1 AND s.scheduled_at < $2
		ORDER BY s.scheduled_at`, from, to)
	return out, mapErr(err)
}

func (s *Store) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE counseling_sessions SET reminder_sent_at = $2 WHERE id = $1 AND reminder_sent_at IS NULL`, id, at)
	return mapErr(err)
}
