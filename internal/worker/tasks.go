package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskApplicationReviewed = "notify:application_reviewed"
	TaskSessionBooked       = "notify:session_booked"
	TaskSessionStatus       = "notify:session_status"
	TaskSyncPost            = "forum:sync_post"
	TaskSendReminders       = "sessions:send_reminders"
	TaskAuditCleanup        = "audit:cleanup"
)

type idPayload struct {
	ID uuid.UUID `json:"id"`
}

type sessionStatusPayload struct {
	ID     uuid.UUID            `json:"id"`
	Status models.SessionStatus `json:"status"`
	Reason string               `json:"reason,omitempty"`
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer turns domain notifications into asynq tasks.
type Enqueuer struct {
	client taskClient
}

var _ services.Notifier = (*Enqueuer)(nil)

func NewEnqueuer(client *asynq.Client) *Enqueuer { return &Enqueuer{client: client} }

func (e *Enqueuer) ApplicationReviewed(ctx context.Context, app models.CounselorApplication) error {
	return e.enqueue(ctx, TaskApplicationReviewed, idPayload{ID: app.ID})
}

func (e *Enqueuer) SessionBooked(ctx context.Context, s models.CounselingSession) error {
	return e.enqueue(ctx, TaskSessionBooked, idPayload{ID: s.ID})
}

func (e *Enqueuer) SessionStatusChanged(ctx context.Context, s models.CounselingSession) error {
	return e.enqueue(ctx, TaskSessionStatus, sessionStatusPayload{ID: s.ID, Status: s.Status, Reason: s.CancellationReason})
}

// syncPostMaxRetry lets asynq's backoff carry a sync across a Meilisearch
// outage of several hours.
const syncPostMaxRetry = 15

// PostChanged schedules a search index sync. Rapid edits collapse into one
// task per post within the uniqueness window.
func (e *Enqueuer) PostChanged(ctx context.Context, postID uuid.UUID) error {
	err := e.enqueue(ctx, TaskSyncPost, idPayload{ID: postID}, asynq.Unique(5*time.Second), asynq.MaxRetry(syncPostMaxRetry))
	if err != nil && isDuplicate(err) {
		return nil
	}
	return err
}

func (e *Enqueuer) enqueue(ctx context.Context, typ string, payload any, extra ...asynq.Option) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	opts := append([]asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Retention(24 * time.Hour),
	}, extra...)
	if _, err := e.client.EnqueueContext(ctx, asynq.NewTask(typ, body), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict)
}
