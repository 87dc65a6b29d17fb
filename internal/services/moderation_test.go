package services

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

func statusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}

func TestApplyModerationRemoveThenRestore(t *testing.T) {
	admin := uuid.New()
	now := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	start := models.ModerationState{IsApproved: true, IsPinned: true, Version: 4}

	removed, changed, err := ApplyModeration(models.TargetPost, start, models.ActionRemove, admin, "spam", now)
	if err != nil || !changed {
		t.Fatalf("remove: changed=%v err=%v", changed, err)
	}
	if !removed.IsRemoved || removed.RemovedBy == nil || *removed.RemovedBy != admin {
		t.Fatalf("remove did not record metadata: %+v", removed)
	}
	if removed.RemovalReason == nil || *removed.RemovalReason != "spam" {
		t.Fatalf("RemovalReason = %v", removed.RemovalReason)
	}
	if removed.IsPinned {
		t.Fatal("removed post should be unpinned")
	}
	if start.IsRemoved {
		t.Fatal("input state was mutated")
	}

	restored, changed, err := ApplyModeration(models.TargetPost, removed, models.ActionRestore, admin, "", now.Add(time.Hour))
	if err != nil || !changed {
		t.Fatalf("restore: changed=%v err=%v", changed, err)
	}
	if restored.IsRemoved || restored.RemovedBy != nil || restored.RemovedAt != nil || restored.RemovalReason != nil {
		t.Fatalf("restore should clear removal metadata: %+v", restored)
	}
	if !restored.IsApproved {
		t.Fatal("restore should keep approval")
	}
}

func TestApplyModerationRemoveIsIdempotent(t *testing.T) {
	first := uuid.New()
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	reason := "abuse"
	state := models.ModerationState{IsRemoved: true, RemovedBy: &first, RemovedAt: &at, RemovalReason: &reason}

	next, changed, err := ApplyModeration(models.TargetComment, state, models.ActionRemove, uuid.New(), "other", at.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Fatal("removing a removed item should be a no-op")
	}
	if *next.RemovedBy != first || *next.RemovalReason != "abuse" {
		t.Fatalf("original removal metadata not preserved: %+v", next)
	}
}

func TestApplyModerationTransitions(t *testing.T) {
	actor := uuid.New()
	now := time.Now()

	cases := []struct {
		name    string
		target  models.ForumTarget
		state   models.ModerationState
		action  models.ModerationAction
		changed bool
		status  int
		check   func(t *testing.T, s models.ModerationState)
	}{
		{
			name: "approve pending", target: models.TargetPost, action: models.ActionApprove, changed: true,
			check: func(t *testing.T, s models.ModerationState) {
				if !s.IsApproved || s.ApprovedBy == nil || *s.ApprovedBy != actor {
					t.Fatalf("approve: %+v", s)
				}
			},
		},
		{name: "approve approved is no-op", target: models.TargetPost, state: models.ModerationState{IsApproved: true}, action: models.ActionApprove},
		{name: "approve removed conflicts", target: models.TargetPost, state: models.ModerationState{IsRemoved: true}, action: models.ActionApprove, status: http.StatusConflict},
		{name: "restore visible conflicts", target: models.TargetPost, state: models.ModerationState{IsApproved: true}, action: models.ActionRestore, status: http.StatusConflict},
		{
			name: "report increments and flags", target: models.TargetComment, state: models.ModerationState{IsApproved: true, ReportCount: 2}, action: models.ActionReport, changed: true,
			check: func(t *testing.T, s models.ModerationState) {
				if s.ReportCount != 3 || !s.IsFlagged {
					t.Fatalf("report: %+v", s)
				}
			},
		},
		{name: "report removed conflicts", target: models.TargetPost, state: models.ModerationState{IsRemoved: true}, action: models.ActionReport, status: http.StatusConflict},
		{
			name: "unflag resets report count", target: models.TargetPost, state: models.ModerationState{IsFlagged: true, ReportCount: 5}, action: models.ActionUnflag, changed: true,
			check: func(t *testing.T, s models.ModerationState) {
				if s.IsFlagged || s.ReportCount != 0 {
					t.Fatalf("unflag: %+v", s)
				}
			},
		},
		{name: "flag keeps approval", target: models.TargetPost, state: models.ModerationState{IsApproved: true}, action: models.ActionFlag, changed: true,
			check: func(t *testing.T, s models.ModerationState) {
				if !s.IsApproved || !s.IsFlagged {
					t.Fatalf("flag: %+v", s)
				}
			},
		},
		{name: "pin pending conflicts", target: models.TargetPost, action: models.ActionPin, status: http.StatusConflict},
		{name: "pin comment invalid", target: models.TargetComment, state: models.ModerationState{IsApproved: true}, action: models.ActionPin, status: http.StatusBadRequest},
		{name: "pin visible post", target: models.TargetPost, state: models.ModerationState{IsApproved: true}, action: models.ActionPin, changed: true},
		{name: "unpin unpinned is no-op", target: models.TargetPost, action: models.ActionUnpin},
		{name: "unknown action", target: models.TargetPost, action: "archive", status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, changed, err := ApplyModeration(tc.target, tc.state, tc.action, actor, "", now)
			if tc.status != 0 {
				if got := statusOf(err); got != tc.status {
					t.Fatalf("status = %d (err %v), want %d", got, err, tc.status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if changed != tc.changed {
				t.Fatalf("changed = %v, want %v", changed, tc.changed)
			}
			if tc.check != nil {
				tc.check(t, next)
			}
		})
	}
}
