package models

import (
	"time"

	"github.com/google/uuid"
)

type CheckIn struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	MoodRating int       `db:"mood_rating" json:"mood_rating"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Streak summarizes consecutive daily check-ins.
type Streak struct {
	Current       int        `json:"current_streak"`
	Longest       int        `json:"longest_streak"`
	TotalCheckIns int        `json:"total_check_ins"`
	LastCheckInAt *time.Time `json:"last_check_in_at"`
}

// MoodDay aggregates one UTC day of check-ins.
type MoodDay struct {
	Day         time.Time `db:"day" json:"day"`
	Count       int       `db:"count" json:"count"`
	AverageMood float64   `db:"average_mood" json:"average_mood"`
}
