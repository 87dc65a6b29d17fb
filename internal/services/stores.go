package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

// Persistence interfaces implemented by internal/store. Implementations return
// ErrNotFound, ErrDuplicate and ErrStaleVersion for the matching conditions.

type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account, profile models.Profile) (models.Profile, error)
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	AccountEmail(ctx context.Context, id uuid.UUID) (string, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
	ListProfiles(ctx context.Context, role models.Role, limit, offset int) ([]models.Profile, error)
	ListCounselors(ctx context.Context) ([]models.Profile, error)
	SetRole(ctx context.Context, id uuid.UUID, role models.Role) (models.Profile, error)
}

// ReviewFunc decides an application inside the review transaction. It returns
// the row to persist and whether the applicant's profile must be (re)promoted.
type ReviewFunc func(current models.CounselorApplication) (next models.CounselorApplication, promote bool, err error)

type ApplicationStore interface {
	CreateApplication(ctx context.Context, app models.CounselorApplication) (models.CounselorApplication, error)
	GetApplication(ctx context.Context, id uuid.UUID) (models.CounselorApplication, error)
	LatestApplication(ctx context.Context, userID uuid.UUID) (models.CounselorApplication, error)
	ListApplications(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]models.CounselorApplication, error)
	// ReviewApplication locks the row, applies decide and, when promote is
	// true, sets the applicant's role to counselor in the same transaction.
	ReviewApplication(ctx context.Context, id uuid.UUID, decide ReviewFunc) (models.CounselorApplication, error)
}

type CounselingStore interface {
	CreateSession(ctx context.Context, s models.CounselingSession) (models.CounselingSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (models.CounselingSession, error)
	ListSessions(ctx context.Context, f models.SessionFilter) ([]models.CounselingSession, error)
	UpdateSession(ctx context.Context, s models.CounselingSession) (models.CounselingSession, error)
	// HasOverlap reports whether the counselor has a non-cancelled session
	// intersecting [start, end), ignoring exclude.
	HasOverlap(ctx context.Context, counselorID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error)
	// DeleteSession returns false when there was nothing to delete.
	DeleteSession(ctx context.Context, id uuid.UUID) (bool, error)
	DueReminders(ctx context.Context, from, to time.Time) ([]models.CounselingSession, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ForumStore interface {
	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (models.Post, error)
	ListVisiblePosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListPosts(ctx context.Context, q models.ModerationQueue, limit, offset int) ([]models.Post, error)
	// UpdatePostContent and Save*Moderation only apply when the stored version
	// equals expectedVersion and return ErrStaleVersion otherwise. Saving a
	// state with no reports clears the target's report rows.
	UpdatePostContent(ctx context.Context, id uuid.UUID, title, content string, flagged bool, expectedVersion int) (models.Post, error)
	SavePostModeration(ctx context.Context, id uuid.UUID, state models.ModerationState, expectedVersion int) (models.Post, error)

	CreateComment(ctx context.Context, c models.Comment) (models.Comment, error)
	GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	ListCommentsForModeration(ctx context.Context, q models.ModerationQueue, limit, offset int) ([]models.Comment, error)
	SaveCommentModeration(ctx context.Context, id uuid.UUID, state models.ModerationState, expectedVersion int) (models.Comment, error)

	// AddReport records one report per reporter and target. It returns false
	// when the reporter already reported the target.
	AddReport(ctx context.Context, target models.ForumTarget, targetID, reporterID uuid.UUID, reason string) (bool, error)
}

type CheckInStore interface {
	CreateCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error)
	ListCheckIns(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.CheckIn, error)
	CheckInTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
	MoodSummary(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.MoodDay, error)
}

// Auditor appends and queries audit events.
type Auditor interface {
	Record(ctx context.Context, event models.AuditEvent) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEvent, error)
}

// Notifier schedules out-of-band work triggered by domain changes.
type Notifier interface {
	ApplicationReviewed(ctx context.Context, app models.CounselorApplication) error
	SessionBooked(ctx context.Context, s models.CounselingSession) error
	SessionStatusChanged(ctx context.Context, s models.CounselingSession) error
	PostChanged(ctx context.Context, postID uuid.UUID) error
}

// SessionRooms controls the chat room of a counseling session.
type SessionRooms interface {
	// Close disconnects the participants of a room.
	Close(ctx context.Context, sessionID string) error
	// Purge deletes the room's history and closes it.
	Purge(ctx context.Context, sessionID string) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) ApplicationReviewed(context.Context, models.CounselorApplication) error { return nil }
func (NopNotifier) SessionBooked(context.Context, models.CounselingSession) error          { return nil }
func (NopNotifier) SessionStatusChanged(context.Context, models.CounselingSession) error   { return nil }
func (NopNotifier) PostChanged(context.Context, uuid.UUID) error                           { return nil }
