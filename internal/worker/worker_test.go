package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/email"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeRecords struct {
	apps     map[uuid.UUID]models.CounselorApplication
	sessions map[uuid.UUID]models.CounselingSession
	emails   map[uuid.UUID]string
}

func (f *fakeRecords) GetApplication(_ context.Context, id uuid.UUID) (models.CounselorApplication, error) {
	a, ok := f.apps[id]
	if !ok {
		return a, services.ErrNotFound
	}
	return a, nil
}

func (f *fakeRecords) GetSession(_ context.Context, id uuid.UUID) (models.CounselingSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return s, services.ErrNotFound
	}
	return s, nil
}

func (f *fakeRecords) AccountEmail(_ context.Context, id uuid.UUID) (string, error) {
	e, ok := f.emails[id]
	if !ok {
		return "", services.ErrNotFound
	}
	return e, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) record(kind, to string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, kind+":"+to)
	return nil
}

func (m *fakeMailer) SendApplicationDecision(to, _ string, approved bool, _ string) error {
	if approved {
		return m.record("approved", to)
	}
	return m.record("rejected", to)
}
func (m *fakeMailer) SendSessionBooked(to, _, _ string, _ time.Time, _ int) error {
	return m.record("booked", to)
}
func (m *fakeMailer) SendSessionStatus(to, _, _, status string, _ time.Time, _ string) error {
	return m.record(status, to)
}
func (m *fakeMailer) SendSessionReminder(to, _, _ string, _ time.Time) error {
	return m.record("reminder", to)
}

type fakeReminders struct {
	due    []models.CounselingSession
	marked []uuid.UUID
}

func (r *fakeReminders) DueReminders(context.Context, time.Duration) ([]models.CounselingSession, error) {
	return r.due, nil
}
func (r *fakeReminders) MarkReminded(_ context.Context, id uuid.UUID) error {
	r.marked = append(r.marked, id)
	return nil
}

func task(t *testing.T, typ string, payload any) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(typ, body)
}

func fixture() (*fakeRecords, models.CounselingSession) {
	counselor, patient := uuid.New(), uuid.New()
	s := models.CounselingSession{
		ID: uuid.New(), CounselorID: counselor, PatientID: patient,
		CounselorName: "Dr. Lee", PatientName: "Pat",
		ScheduledAt: time.Now().Add(time.Hour), DurationMinutes: 50, Status: models.SessionScheduled,
	}
	recs := &fakeRecords{
		apps:     map[uuid.UUID]models.CounselorApplication{},
		sessions: map[uuid.UUID]models.CounselingSession{s.ID: s},
		emails:   map[uuid.UUID]string{counselor: "lee@example.com", patient: "pat@example.com"},
	}
	return recs, s
}

func TestSessionBookedEmailsBothParticipants(t *testing.T) {
	recs, s := fixture()
	mailer := &fakeMailer{}
	mux := NewServeMux(Deps{Records: recs, Mailer: mailer, Log: logger.Nop()})

	if err := mux.ProcessTask(context.Background(), task(t, TaskSessionBooked, idPayload{ID: s.ID})); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(mailer.sent) != 2 || mailer.sent[0] != "booked:pat@example.com" || mailer.sent[1] != "booked:lee@example.com" {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestSessionStatusUsesPayloadStatus(t *testing.T) {
	recs, s := fixture()
	mailer := &fakeMailer{}
	mux := NewServeMux(Deps{Records: recs, Mailer: mailer, Log: logger.Nop()})

	payload := sessionStatusPayload{ID: s.ID, Status: models.SessionCancelled, Reason: "sick"}
	if err := mux.ProcessTask(context.Background(), task(t, TaskSessionStatus, payload)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(mailer.sent) != 2 || mailer.sent[0] != "cancelled:pat@example.com" {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestMissingRecordsSkipRetry(t *testing.T) {
	recs, _ := fixture()
	mux := NewServeMux(Deps{Records: recs, Mailer: &fakeMailer{}, Log: logger.Nop()})

	err := mux.ProcessTask(context.Background(), task(t, TaskApplicationReviewed, idPayload{ID: uuid.New()}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	err = mux.ProcessTask(context.Background(), asynq.NewTask(TaskSessionBooked, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("bad payload err = %v, want SkipRetry", err)
	}
}

func TestUnconfiguredMailerSkipsRetry(t *testing.T) {
	recs, s := fixture()
	mux := NewServeMux(Deps{Records: recs, Mailer: &fakeMailer{err: email.ErrNotConfigured}, Log: logger.Nop()})

	err := mux.ProcessTask(context.Background(), task(t, TaskSessionBooked, idPayload{ID: s.ID}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestApplicationDecisionEmail(t *testing.T) {
	recs, _ := fixture()
	user := uuid.New()
	app := models.CounselorApplication{ID: uuid.New(), UserID: user, Status: models.ApplicationApproved}
	recs.apps[app.ID] = app
	recs.emails[user] = "new@example.com"
	mailer := &fakeMailer{}
	mux := NewServeMux(Deps{Records: recs, Mailer: mailer, Log: logger.Nop()})

	if err := mux.ProcessTask(context.Background(), task(t, TaskApplicationReviewed, idPayload{ID: app.ID})); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "approved:new@example.com" {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestSendRemindersMarksOnlyDelivered(t *testing.T) {
	recs, s := fixture()
	orphan := s
	orphan.ID = uuid.New()
	orphan.PatientID = uuid.New() // no email on file
	reminders := &fakeReminders{due: []models.CounselingSession{s, orphan}}
	mailer := &fakeMailer{}
	mux := NewServeMux(Deps{Records: recs, Mailer: mailer, Reminders: reminders, Log: logger.Nop()})

	if err := mux.ProcessTask(context.Background(), asynq.NewTask(TaskSendReminders, nil)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(reminders.marked) != 1 || reminders.marked[0] != s.ID {
		t.Fatalf("marked = %v, want only %s", reminders.marked, s.ID)
	}
}

type captureClient struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestEnqueuer(t *testing.T) {
	c := &captureClient{}
	e := &Enqueuer{client: c}
	s := models.CounselingSession{ID: uuid.New(), Status: models.SessionCancelled, CancellationReason: "conflict"}

	if err := e.SessionStatusChanged(context.Background(), s); err != nil {
		t.Fatalf("SessionStatusChanged: %v", err)
	}
	if len(c.tasks) != 1 || c.tasks[0].Type() != TaskSessionStatus {
		t.Fatalf("tasks = %v", c.tasks)
	}
	var p sessionStatusPayload
	if err := json.Unmarshal(c.tasks[0].Payload(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != s.ID || p.Status != models.SessionCancelled || p.Reason != "conflict" {
		t.Fatalf("payload = %+v", p)
	}

	c.err = asynq.ErrDuplicateTask
	if err := e.PostChanged(context.Background(), uuid.New()); err != nil {
		t.Fatalf("duplicate sync task should be ignored, got %v", err)
	}
}

type fakeSyncer struct {
	err   error
	calls int
}

func (f *fakeSyncer) SyncPost(context.Context, uuid.UUID) error {
	f.calls++
	return f.err
}

func TestSyncPostErrorsAreRetried(t *testing.T) {
	down := errors.New("search index unavailable")
	syncer := &fakeSyncer{err: down}
	mux := NewServeMux(Deps{Search: syncer, Log: logger.Nop()})

	body, _ := json.Marshal(idPayload{ID: uuid.New()})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(TaskSyncPost, body))
	if !errors.Is(err, down) {
		t.Fatalf("err = %v, want the index error", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("an unavailable index must leave the task retryable")
	}

	syncer.err = nil
	if err := mux.ProcessTask(context.Background(), asynq.NewTask(TaskSyncPost, body)); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if syncer.calls != 2 {
		t.Fatalf("calls = %d, want 2", syncer.calls)
	}
}
