package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/database"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
)

// openTestStore connects to TEST_DATABASE_URL and applies migrations, or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.ConnectPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.Migrate(db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func createTestUser(t *testing.T, s *Store, name string) models.Profile {
	t.Helper()
	p, err := s.CreateAccount(context.Background(),
		models.Account{Email: uuid.NewString() + "@example.test", PasswordHash: "x", IsActive: true},
		models.Profile{DisplayName: name})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return p
}

func TestIntegrationDuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.test"
	acct := models.Account{Email: email, PasswordHash: "x", IsActive: true}
	if _, err := s.CreateAccount(ctx, acct, models.Profile{DisplayName: "first"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := s.CreateAccount(ctx, acct, models.Profile{DisplayName: "second"}); !errors.Is(err, services.ErrDuplicate) {
		t.Fatalf("second signup err = %v, want ErrDuplicate", err)
	}
}

func TestIntegrationPostVersionCAS(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	author := createTestUser(t, s, "author")

	post, err := s.CreatePost(ctx, models.Post{UserID: author.ID, Title: "hello", Content: "first post"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Version != 1 || post.AuthorName != "author" {
		t.Fatalf("unexpected post %+v", post)
	}

	state := post.ModerationState
	state.IsApproved = true
	updated, err := s.SavePostModeration(ctx, post.ID, state, post.Version)
	if err != nil {
		t.Fatalf("save moderation: %v", err)
	}
	if updated.Version != 2 || !updated.IsApproved {
		t.Fatalf("unexpected state after save: %+v", updated.ModerationState)
	}

	if _, err := s.SavePostModeration(ctx, post.ID, state, post.Version); !errors.Is(err, services.ErrStaleVersion) {
		t.Fatalf("stale save err = %v, want ErrStaleVersion", err)
	}
	if _, err := s.SavePostModeration(ctx, uuid.New(), state, 1); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing post err = %v, want ErrNotFound", err)
	}
}

func TestIntegrationReportOncePerReporter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	author := createTestUser(t, s, "author")
	reporter := createTestUser(t, s, "reporter")

	post, err := s.CreatePost(ctx, models.Post{UserID: author.ID, Title: "hello", Content: "content"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	for i, want := range []bool{true, false} {
		added, err := s.AddReport(ctx, models.TargetPost, post.ID, reporter.ID, "spam")
		if err != nil || added != want {
			t.Fatalf("report %d: added=%v err=%v, want %v", i, added, err, want)
		}
	}
	got, err := s.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.ReportCount != 1 || !got.IsFlagged || got.Version != 2 {
		t.Fatalf("unexpected moderation state %+v", got.ModerationState)
	}

	// Unflagging clears the reports, so the same user can report again.
	cleared := got.ModerationState
	cleared.IsFlagged, cleared.ReportCount = false, 0
	if _, err := s.SavePostModeration(ctx, post.ID, cleared, got.Version); err != nil {
		t.Fatalf("unflag: %v", err)
	}
	added, err := s.AddReport(ctx, models.TargetPost, post.ID, reporter.ID, "spam again")
	if err != nil || !added {
		t.Fatalf("report after unflag: added=%v err=%v, want true", added, err)
	}
	if got, _ := s.GetPost(ctx, post.ID); got.ReportCount != 1 {
		t.Fatalf("report_count after re-report = %d, want 1", got.ReportCount)
	}
}

func TestIntegrationReviewPromotesApplicant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	applicant := createTestUser(t, s, "applicant")
	reviewer := createTestUser(t, s, "reviewer")

	app, err := s.CreateApplication(ctx, models.CounselorApplication{
		UserID: applicant.ID, Credentials: "LPC", YearsExperience: 4, Specializations: []string{"anxiety"},
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	if _, err := s.CreateApplication(ctx, models.CounselorApplication{UserID: applicant.ID, Credentials: "LPC"}); !errors.Is(err, services.ErrDuplicate) {
		t.Fatalf("second pending application err = %v, want ErrDuplicate", err)
	}

	now := time.Now().UTC()
	reviewed, err := s.ReviewApplication(ctx, app.ID, func(cur models.CounselorApplication) (models.CounselorApplication, bool, error) {
		cur.Status = models.ApplicationApproved
		cur.ReviewedBy = &reviewer.ID
		cur.ReviewedAt = &now
		return cur, true, nil
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != models.ApplicationApproved {
		t.Fatalf("status = %s", reviewed.Status)
	}
	profile, err := s.GetProfile(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Role != models.RoleCounselor || profile.YearsExperience != 4 {
		t.Fatalf("applicant not promoted: %+v", profile)
	}
}

func TestIntegrationSessionOverlapAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	counselor := createTestUser(t, s, "counselor")
	patient := createTestUser(t, s, "patient")

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	cs, err := s.CreateSession(ctx, models.CounselingSession{
		CounselorID: counselor.ID, PatientID: patient.ID, ScheduledAt: start,
		DurationMinutes: 50, Status: models.SessionScheduled,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	overlap, err := s.HasOverlap(ctx, counselor.ID, start.Add(30*time.Minute), start.Add(80*time.Minute), uuid.Nil)
	if err != nil || !overlap {
		t.Fatalf("overlap=%v err=%v, want true", overlap, err)
	}
	overlap, err = s.HasOverlap(ctx, counselor.ID, start.Add(50*time.Minute), start.Add(100*time.Minute), uuid.Nil)
	if err != nil || overlap {
		t.Fatalf("back-to-back overlap=%v err=%v, want false", overlap, err)
	}

	// Concurrent bookings that both pass HasOverlap still collide on the constraint.
	_, err = s.CreateSession(ctx, models.CounselingSession{
		CounselorID: counselor.ID, PatientID: patient.ID, ScheduledAt: start.Add(20 * time.Minute),
		DurationMinutes: 50, Status: models.SessionScheduled,
	})
	if !errors.Is(err, services.ErrSlotTaken) {
		t.Fatalf("overlapping insert: err = %v, want ErrSlotTaken", err)
	}
	next, err := s.CreateSession(ctx, models.CounselingSession{
		CounselorID: counselor.ID, PatientID: patient.ID, ScheduledAt: start.Add(50 * time.Minute),
		DurationMinutes: 50, Status: models.SessionScheduled,
	})
	if err != nil {
		t.Fatalf("back-to-back insert: %v", err)
	}
	if _, err := s.DeleteSession(ctx, next.ID); err != nil {
		t.Fatalf("delete back-to-back session: %v", err)
	}

	for i, want := range []bool{true, false} {
		deleted, err := s.DeleteSession(ctx, cs.ID)
		if err != nil || deleted != want {
			t.Fatalf("delete %d: deleted=%v err=%v, want %v", i, deleted, err, want)
		}
	}
}
