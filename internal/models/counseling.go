package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// CounselingSession is a booked appointment between a counselor and a patient.
type CounselingSession struct {
	ID                 uuid.UUID     `db:"id" json:"id"`
	CounselorID        uuid.UUID     `db:"counselor_id" json:"counselor_id"`
	CounselorName      string        `db:"counselor_name" json:"counselor_name"`
	PatientID          uuid.UUID     `db:"patient_id" json:"patient_id"`
	PatientName        string        `db:"patient_name" json:"patient_name"`
	ScheduledAt        time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes    int           `db:"duration_minutes" json:"duration_minutes"`
	Status             SessionStatus `db:"status" json:"status"`
	IsVideo            bool          `db:"is_video" json:"is_video"`
	Notes              string        `db:"notes" json:"notes"`
	CancelledBy        *uuid.UUID    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason string        `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	ReminderSentAt     *time.Time    `db:"reminder_sent_at" json:"-"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

func (s CounselingSession) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

func (s CounselingSession) IsParticipant(userID uuid.UUID) bool {
	return userID == s.CounselorID || userID == s.PatientID
}

// SessionFilter narrows session listings. Zero values mean "any".
type SessionFilter struct {
	UserID uuid.UUID
	AsRole string // "patient", "counselor" or "" for both
	Status SessionStatus
	Limit  int
	Offset int
}
