package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationState is the set of moderation flags shared by posts and comments.
// Version increments on every write and guards concurrent moderation.
type ModerationState struct {
	IsApproved    bool       `db:"is_approved" json:"is_approved"`
	ApprovedBy    *uuid.UUID `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	IsFlagged     bool       `db:"is_flagged" json:"is_flagged"`
	ReportCount   int        `db:"report_count" json:"report_count"`
	IsRemoved     bool       `db:"is_removed" json:"is_removed"`
	RemovedBy     *uuid.UUID `db:"removed_by" json:"removed_by"`
	RemovedAt     *time.Time `db:"removed_at" json:"removed_at"`
	RemovalReason *string    `db:"removal_reason" json:"removal_reason"`
	IsPinned      bool       `db:"is_pinned" json:"is_pinned"`
	Version       int        `db:"version" json:"version"`
}

// Visible reports whether the item is shown to the community.
func (m ModerationState) Visible() bool {
	return m.IsApproved && !m.IsRemoved
}

type Post struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	AuthorName   string    `db:"author_name" json:"author_name"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	ModerationState
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Comment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PostID     uuid.UUID `db:"post_id" json:"post_id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Content    string    `db:"content" json:"content"`
	ModerationState
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ForumTarget names the kind of forum item a report or moderation action applies to.
type ForumTarget string

const (
	TargetPost    ForumTarget = "post"
	TargetComment ForumTarget = "comment"
)

// ModerationAction is an operation on an item's moderation flags.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionFlag    ModerationAction = "flag"
	ActionUnflag  ModerationAction = "unflag"
	ActionReport  ModerationAction = "report"
	ActionRemove  ModerationAction = "remove"
	ActionRestore ModerationAction = "restore"
	ActionPin     ModerationAction = "pin"
	ActionUnpin   ModerationAction = "unpin"
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ActionApprove, ActionFlag, ActionUnflag, ActionReport, ActionRemove, ActionRestore, ActionPin, ActionUnpin:
		return true
	}
	return false
}

// ModerationQueue selects items for the admin moderation views.
type ModerationQueue string

const (
	QueuePending ModerationQueue = "pending"
	QueueFlagged ModerationQueue = "flagged"
	QueueRemoved ModerationQueue = "removed"
	QueueAll     ModerationQueue = "all"
)

func (q ModerationQueue) Valid() bool {
	switch q {
	case QueuePending, QueueFlagged, QueueRemoved, QueueAll:
		return true
	}
	return false
}
