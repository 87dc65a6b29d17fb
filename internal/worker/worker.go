package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/email"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Mailer sends the notification emails.
type Mailer interface {
	SendApplicationDecision(to, name string, approved bool, notes string) error
	SendSessionBooked(to, name, other string, at time.Time, minutes int) error
	SendSessionStatus(to, name, other, status string, at time.Time, reason string) error
	SendSessionReminder(to, name, other string, at time.Time) error
}

type Records interface {
	GetApplication(ctx context.Context, id uuid.UUID) (models.CounselorApplication, error)
	GetSession(ctx context.Context, id uuid.UUID) (models.CounselingSession, error)
	AccountEmail(ctx context.Context, id uuid.UUID) (string, error)
}

type PostSyncer interface {
	SyncPost(ctx context.Context, id uuid.UUID) error
}

type Reminders interface {
	DueReminders(ctx context.Context, lead time.Duration) ([]models.CounselingSession, error)
	MarkReminded(ctx context.Context, id uuid.UUID) error
}

type AuditPurger interface {
	PurgeViolations(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deps are the collaborators task handlers need.
type Deps struct {
	Records        Records
	Mailer         Mailer
	Search         PostSyncer
	Reminders      Reminders
	Audit          AuditPurger
	ReminderLead   time.Duration
	AuditRetention time.Duration
	Log            *zap.SugaredLogger
}

type Options struct {
	RedisURI    string
	Concurrency int
}

// Start runs the asynq server in the background and returns its stop function.
func Start(opts Options, deps Deps) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(opts.RedisURI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(errorHandler(deps.Log)),
		Logger:          &asynqLogger{log: deps.Log},
	})
	if err := srv.Start(NewServeMux(deps)); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	deps.Log.Infow("worker started", "concurrency", concurrency)
	return srv.Shutdown, nil
}

// NewServeMux registers one handler per task type.
func NewServeMux(deps Deps) *asynq.ServeMux {
	h := &handlers{Deps: deps}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskApplicationReviewed, h.applicationReviewed)
	mux.HandleFunc(TaskSessionBooked, h.sessionBooked)
	mux.HandleFunc(TaskSessionStatus, h.sessionStatus)
	mux.HandleFunc(TaskSyncPost, h.syncPost)
	mux.HandleFunc(TaskSendReminders, h.sendReminders)
	mux.HandleFunc(TaskAuditCleanup, h.auditCleanup)
	return mux
}

type handlers struct {
	Deps
}

func decode(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
	}
	return nil
}

// permanent stops retries for failures another attempt cannot fix.
func permanent(err error) error {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, email.ErrNotConfigured) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (h *handlers) applicationReviewed(ctx context.Context, task *asynq.Task) error {
	var p idPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	app, err := h.Records.GetApplication(ctx, p.ID)
	if err != nil {
		return permanent(fmt.Errorf("load application: %w", err))
	}
	if app.Status == models.ApplicationPending {
		return nil
	}
	to, err := h.Records.AccountEmail(ctx, app.UserID)
	if err != nil {
		return permanent(fmt.Errorf("load applicant email: %w", err))
	}
	if err := h.Mailer.SendApplicationDecision(to, app.ApplicantName, app.Status == models.ApplicationApproved, app.ReviewNotes); err != nil {
		return permanent(fmt.Errorf("send decision email: %w", err))
	}
	h.Log.Infow("application decision emailed", "application_id", app.ID, "status", app.Status)
	return nil
}

// participant is one side of a session as seen by the email templates.
type participant struct {
	id          uuid.UUID
	name, other string
}

func participants(s models.CounselingSession) []participant {
	return []participant{
		{id: s.PatientID, name: s.PatientName, other: s.CounselorName},
		{id: s.CounselorID, name: s.CounselorName, other: s.PatientName},
	}
}

// eachParticipant emails both sides and returns the first failure.
func (h *handlers) eachParticipant(ctx context.Context, s models.CounselingSession, send func(to string, p participant) error) error {
	var firstErr error
	for _, p := range participants(s) {
		to, err := h.Records.AccountEmail(ctx, p.id)
		if err == nil {
			err = send(to, p)
		}
		if err != nil {
			h.Log.Warnw("session email failed", "session_id", s.ID, "user_id", p.id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (h *handlers) sessionBooked(ctx context.Context, task *asynq.Task) error {
	var p idPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	s, err := h.Records.GetSession(ctx, p.ID)
	if err != nil {
		return permanent(fmt.Errorf("load session: %w", err))
	}
	err = h.eachParticipant(ctx, s, func(to string, who participant) error {
		return h.Mailer.SendSessionBooked(to, who.name, who.other, s.ScheduledAt, s.DurationMinutes)
	})
	return permanent(err)
}

func (h *handlers) sessionStatus(ctx context.Context, task *asynq.Task) error {
	var p sessionStatusPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	s, err := h.Records.GetSession(ctx, p.ID)
	if err != nil {
		return permanent(fmt.Errorf("load session: %w", err))
	}
	status := p.Status
	if status == "" {
		status = s.Status
	}
	err = h.eachParticipant(ctx, s, func(to string, who participant) error {
		return h.Mailer.SendSessionStatus(to, who.name, who.other, string(status), s.ScheduledAt, p.Reason)
	})
	return permanent(err)
}

func (h *handlers) syncPost(ctx context.Context, task *asynq.Task) error {
	var p idPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	if h.Search == nil {
		return nil
	}
	if err := h.Search.SyncPost(ctx, p.ID); err != nil {
		return fmt.Errorf("sync post %s: %w", p.ID, err)
	}
	return nil
}

// sendReminders emails both participants of every session starting within the
// lead time. A session is marked only after its emails went out, so a failed
// send is picked up by the next run.
func (h *handlers) sendReminders(ctx context.Context, _ *asynq.Task) error {
	due, err := h.Reminders.DueReminders(ctx, h.ReminderLead)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}
	sent := 0
	for _, s := range due {
		err := h.eachParticipant(ctx, s, func(to string, who participant) error {
			return h.Mailer.SendSessionReminder(to, who.name, who.other, s.ScheduledAt)
		})
		if err != nil {
			continue
		}
		if err := h.Reminders.MarkReminded(ctx, s.ID); err != nil {
			h.Log.Warnw("mark reminder sent failed", "session_id", s.ID, "error", err)
			continue
		}
		sent++
	}
	h.Log.Infow("session reminders processed", "due", len(due), "sent", sent)
	return nil
}

func (h *handlers) auditCleanup(ctx context.Context, _ *asynq.Task) error {
	retention := h.AuditRetention
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	n, err := h.Audit.PurgeViolations(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return fmt.Errorf("purge audit events: %w", err)
	}
	h.Log.Infow("audit cleanup finished", "deleted", n, "retention", retention)
	return nil
}

func errorHandler(log *zap.SugaredLogger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		log.Errorw("task failed",
			"type", task.Type(),
			"retried", retried,
			"max_retry", maxRetry,
			"error", err,
		)
	}
}
