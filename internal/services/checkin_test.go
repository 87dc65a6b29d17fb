package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
)

type memCheckIns struct {
	mu    sync.Mutex
	items []models.CheckIn
	now   func() time.Time
	reads int
}

func (m *memCheckIns) CreateCheckIn(_ context.Context, c models.CheckIn) (models.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = m.now()
	m.items = append(m.items, c)
	return c, nil
}

func (m *memCheckIns) ListCheckIns(_ context.Context, userID uuid.UUID, _, _ int) ([]models.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CheckIn
	for _, c := range m.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCheckIns) CheckInTimes(_ context.Context, userID uuid.UUID) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var out []time.Time
	for _, c := range m.items {
		if c.UserID == userID {
			out = append(out, c.CreatedAt)
		}
	}
	return out, nil
}

func (m *memCheckIns) MoodSummary(context.Context, uuid.UUID, time.Time) ([]models.MoodDay, error) {
	return nil, nil
}

func testCipher(t *testing.T) *utils.Cipher {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	c, err := utils.NewCipher(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestCheckInStreakCaching(t *testing.T) {
	now := time.Date(2026, time.June, 10, 8, 0, 0, 0, time.UTC)
	store := &memCheckIns{now: func() time.Time { return now }}
	cache := newMemCache()
	svc := NewCheckInService(store, cache, nil, testLog)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	user := Actor{ID: uuid.New(), Role: models.RoleUser}

	for _, d := range []int{-2, -1} {
		store.items = append(store.items, models.CheckIn{ID: uuid.New(), UserID: user.ID, MoodRating: 5, CreatedAt: now.AddDate(0, 0, d)})
	}

	streak, err := svc.Streak(ctx, user.ID)
	if err != nil {
		t.Fatalf("Streak: %v", err)
	}
	if streak.Current != 2 || streak.Longest != 2 || streak.TotalCheckIns != 2 {
		t.Fatalf("streak = %+v", streak)
	}
	if _, err := svc.Streak(ctx, user.ID); err != nil || store.reads != 1 {
		t.Fatalf("second read should hit the cache (reads=%d, err=%v)", store.reads, err)
	}

	if _, err := svc.Create(ctx, user, CheckInInput{MoodRating: 7}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	streak, err = svc.Streak(ctx, user.ID)
	if err != nil {
		t.Fatalf("Streak: %v", err)
	}
	if streak.Current != 3 || streak.TotalCheckIns != 3 || store.reads != 2 {
		t.Fatalf("check-in should invalidate the cached streak: %+v reads=%d", streak, store.reads)
	}
	if streak.LastCheckInAt == nil || !streak.LastCheckInAt.Equal(now) {
		t.Fatalf("LastCheckInAt = %v", streak.LastCheckInAt)
	}
}

func TestCheckInStreakNotCachedJustBeforeMidnight(t *testing.T) {
	now := time.Date(2026, time.June, 10, 23, 59, 30, 0, time.UTC)
	store := &memCheckIns{now: func() time.Time { return now }}
	cache := newMemCache()
	svc := NewCheckInService(store, cache, nil, testLog)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	userID := uuid.New()
	store.items = append(store.items, models.CheckIn{ID: uuid.New(), UserID: userID, MoodRating: 5, CreatedAt: now.Add(-time.Hour)})

	if streak, err := svc.Streak(ctx, userID); err != nil || streak.Current != 1 {
		t.Fatalf("Streak = %+v, %v", streak, err)
	}
	if cache.sets != 0 {
		t.Fatalf("cache writes = %d, want none with under a minute to midnight", cache.sets)
	}

	// Two days later the same check-in no longer counts.
	now = now.Add(48 * time.Hour)
	if streak, err := svc.Streak(ctx, userID); err != nil || streak.Current != 0 || streak.Longest != 1 {
		t.Fatalf("Streak after midnight = %+v, %v", streak, err)
	}
}

func TestCheckInValidationAndEncryption(t *testing.T) {
	now := time.Now()
	store := &memCheckIns{now: func() time.Time { return now }}
	svc := NewCheckInService(store, newMemCache(), testCipher(t), testLog)
	ctx := context.Background()
	user := Actor{ID: uuid.New(), Role: models.RoleUser}

	for _, rating := range []int{0, 11} {
		if _, err := svc.Create(ctx, user, CheckInInput{MoodRating: rating}); statusOf(err) != http.StatusBadRequest {
			t.Fatalf("rating %d: err = %v, want 400", rating, err)
		}
	}

	created, err := svc.Create(ctx, user, CheckInInput{MoodRating: 4, Notes: "slept badly"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Notes != "slept badly" {
		t.Fatalf("returned notes = %q", created.Notes)
	}
	if store.items[0].Notes == "slept badly" {
		t.Fatal("notes should be encrypted at rest")
	}

	list, err := svc.List(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Notes != "slept badly" {
		t.Fatalf("List = %+v", list)
	}
}
