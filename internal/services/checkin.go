package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinMoodRating      = 1
	MaxMoodRating      = 10
	maxCheckInNotes    = 2000
	defaultSummaryDays = 30
	maxSummaryDays     = 365
)

type CheckInInput struct {
	MoodRating int    `json:"mood_rating"`
	Notes      string `json:"notes"`
}

func streakKey(userID uuid.UUID) string {
	return CacheKey("streak", userID.String())
}

// CheckInService records mood check-ins. Notes are encrypted at rest when a
// cipher is configured.
type CheckInService struct {
	store  CheckInStore
	cache  Cache
	cipher *utils.Cipher
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewCheckInService(store CheckInStore, cache Cache, cipher *utils.Cipher, log *zap.SugaredLogger) *CheckInService {
	return &CheckInService{store: store, cache: cache, cipher: cipher, now: time.Now, log: log}
}

func (s *CheckInService) Create(ctx context.Context, actor Actor, in CheckInInput) (models.CheckIn, error) {
	var errs utils.ValidationErrors
	if in.MoodRating < MinMoodRating || in.MoodRating > MaxMoodRating {
		errs.Add("mood_rating", fmt.Sprintf("must be between %d and %d", MinMoodRating, MaxMoodRating))
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > maxCheckInNotes {
		errs.Add("notes", fmt.Sprintf("must be at most %d characters", maxCheckInNotes))
	}
	if !errs.Empty() {
		return models.CheckIn{}, Invalid(errs)
	}

	stored, err := s.cipher.Encrypt(notes)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("encrypt notes: %w", err)
	}
	created, err := s.store.CreateCheckIn(ctx, models.CheckIn{
		ID:         uuid.New(),
		UserID:     actor.ID,
		MoodRating: in.MoodRating,
		Notes:      stored,
	})
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("create check-in: %w", err)
	}
	created.Notes = notes

	if err := s.cache.Delete(ctx, streakKey(actor.ID)); err != nil {
		s.log.Warnw("streak cache invalidation failed", "user_id", actor.ID, "error", err)
	}
	return created, nil
}

func (s *CheckInService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.CheckIn, error) {
	limit, offset = clampPage(limit, offset)
	items, err := s.store.ListCheckIns(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		plain, err := s.cipher.Decrypt(items[i].Notes)
		if err != nil {
			// written before a key was configured, or with another key
			s.log.Warnw("check-in notes could not be decrypted", "check_in_id", items[i].ID, "error", err)
			plain = ""
		}
		items[i].Notes = plain
	}
	return items, nil
}

// Streak computes the caller's streak, cached until the next UTC midnight
// (when "today" changes) or until the next check-in.
func (s *CheckInService) Streak(ctx context.Context, userID uuid.UUID) (models.Streak, error) {
	var streak models.Streak
	if hit, err := s.cache.Get(ctx, streakKey(userID), &streak); err == nil && hit {
		return streak, nil
	}

	times, err := s.store.CheckInTimes(ctx, userID)
	if err != nil {
		return streak, fmt.Errorf("load check-in times: %w", err)
	}
	now := s.now()
	streak.Current, streak.Longest = ComputeStreak(times, now)
	streak.TotalCheckIns = len(times)
	for _, t := range times {
		if streak.LastCheckInAt == nil || t.After(*streak.LastCheckInAt) {
			last := t
			streak.LastCheckInAt = &last
		}
	}

	// The cache clamps short TTLs up, which would carry the streak past midnight.
	ttl := utcDay(now).Add(24 * time.Hour).Sub(now)
	if ttl < MinCacheTTL {
		return streak, nil
	}
	if err := s.cache.Set(ctx, streakKey(userID), streak, ttl); err != nil {
		s.log.Warnw("streak cache write failed", "user_id", userID, "error", err)
	}
	return streak, nil
}

// Summary returns per-day mood aggregates for the last days UTC days.
func (s *CheckInService) Summary(ctx context.Context, userID uuid.UUID, days int) ([]models.MoodDay, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	if days > maxSummaryDays {
		days = maxSummaryDays
	}
	since := utcDay(s.now()).AddDate(0, 0, -(days - 1))
	return s.store.MoodSummary(ctx, userID, since)
}
