package store

import (
	"context"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

func (s *Store) CreateCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	var out models.CheckIn
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO check_ins (user_id, mood_rating, notes)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, mood_rating, notes, created_at`,
		c.UserID, c.MoodRating, c.Notes)
	return out, mapErr(err)
}

func (s *Store) ListCheckIns(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.CheckIn, error) {
	out := []models.CheckIn{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, user_id, mood_rating, notes, created_at FROM check_ins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	return out, mapErr(err)
}

func (s *Store) CheckInTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	out := []time.Time{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT created_at FROM check_ins WHERE user_id = $1 ORDER BY created_at`, userID)
	return out, mapErr(err)
}

// MoodSummary aggregates check-ins per UTC day since the given time.
func (s *Store) MoodSummary(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.MoodDay, error) {
	out := []models.MoodDay{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
			COUNT(*) AS count,
			ROUND(AVG(mood_rating)::numeric, 2)::float8 AS average_mood
		FROM check_ins
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY 1
		ORDER BY 1`, userID, since)
	for i := range out {
		out[i].Day = time.Date(out[i].Day.Year(), out[i].Day.Month(), out[i].Day.Day(), 0, 0, 0, 0, time.UTC)
	}
	return out, mapErr(err)
}
