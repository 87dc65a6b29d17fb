package services

import (
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

const maxRemovalReasonLength = 500

// ApplyModeration computes the moderation state that results from action. It
// never mutates its input. changed is false when the action is a no-op on the
// current state, in which case the caller skips the write.
//
// Version is left untouched; the store bumps it as part of the conditional update.
func ApplyModeration(target models.ForumTarget, state models.ModerationState, action models.ModerationAction,
	actor uuid.UUID, reason string, now time.Time) (next models.ModerationState, changed bool, err error) {
	next = state
	reason = strings.TrimSpace(reason)
	if len(reason) > maxRemovalReasonLength {
		return state, false, InvalidField("reason", "must be at most 500 characters")
	}

	switch action {
	case models.ActionApprove:
		if state.IsRemoved {
			return state, false, Conflict("ITEM_REMOVED", "Removed content must be restored before it can be approved")
		}
		if state.IsApproved {
			return state, false, nil
		}
		at := now
		next.IsApproved = true
		next.ApprovedBy = &actor
		next.ApprovedAt = &at

	case models.ActionFlag:
		if state.IsFlagged {
			return state, false, nil
		}
		next.IsFlagged = true

	case models.ActionUnflag:
		if !state.IsFlagged && state.ReportCount == 0 {
			return state, false, nil
		}
		next.IsFlagged = false
		next.ReportCount = 0

	case models.ActionReport:
		if state.IsRemoved {
			return state, false, Conflict("ITEM_REMOVED", "This content has already been removed")
		}
		next.ReportCount++
		next.IsFlagged = true

	case models.ActionRemove:
		if state.IsRemoved {
			// keep the original removal metadata
			return state, false, nil
		}
		at := now
		next.IsRemoved = true
		next.RemovedBy = &actor
		next.RemovedAt = &at
		next.RemovalReason = nil
		if reason != "" {
			next.RemovalReason = &reason
		}
		next.IsPinned = false

	case models.ActionRestore:
		if !state.IsRemoved {
			return state, false, Conflict("NOT_REMOVED", "Only removed content can be restored")
		}
		next.IsRemoved = false
		next.RemovedBy = nil
		next.RemovedAt = nil
		next.RemovalReason = nil

	case models.ActionPin:
		if target != models.TargetPost {
			return state, false, InvalidField("action", "only posts can be pinned")
		}
		if !state.Visible() {
			return state, false, Conflict("NOT_VISIBLE", "Only approved, visible posts can be pinned")
		}
		if state.IsPinned {
			return state, false, nil
		}
		next.IsPinned = true

	case models.ActionUnpin:
		if target != models.TargetPost {
			return state, false, InvalidField("action", "only posts can be pinned")
		}
		if !state.IsPinned {
			return state, false, nil
		}
		next.IsPinned = false

	default:
		return state, false, InvalidField("action", "must be one of approve, flag, unflag, report, remove, restore, pin, unpin")
	}

	return next, true, nil
}
