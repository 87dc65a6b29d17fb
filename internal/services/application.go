package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxApplicationDocuments = 10

type ApplicationInput struct {
	Credentials     string   `json:"credentials"`
	YearsExperience int      `json:"years_experience"`
	Specializations []string `json:"specializations"`
	ProfessionalBio string   `json:"professional_bio"`
	DocumentURLs    []string `json:"document_urls"`
}

type ReviewInput struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type ApplicationService struct {
	store    ApplicationStore
	cache    Cache
	audit    Auditor
	notifier Notifier
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewApplicationService(store ApplicationStore, cache Cache, audit Auditor, notifier Notifier, log *zap.SugaredLogger) *ApplicationService {
	return &ApplicationService{store: store, cache: cache, audit: audit, notifier: notifier, now: time.Now, log: log}
}

func (s *ApplicationService) Submit(ctx context.Context, actor Actor, in ApplicationInput) (models.CounselorApplication, error) {
	if !actor.Can(rbac.ApplyCounselor) {
		return models.CounselorApplication{}, Conflict("ALREADY_COUNSELOR", "Only members without a counselor or admin role can apply")
	}

	var errs utils.ValidationErrors
	credentials := strings.TrimSpace(in.Credentials)
	if credentials == "" {
		errs.Add("credentials", "is required")
	}
	checkLength(&errs, "credentials", credentials, 500)
	if in.YearsExperience < 0 || in.YearsExperience > 70 {
		errs.Add("years_experience", "must be between 0 and 70")
	}
	specs := cleanTagList(&errs, "specializations", in.Specializations)
	if len(specs) == 0 {
		errs.Add("specializations", "at least one specialization is required")
	}
	bio := strings.TrimSpace(in.ProfessionalBio)
	checkLength(&errs, "professional_bio", bio, 2000)
	docs := utils.CleanList(in.DocumentURLs, 0)
	if len(docs) > maxApplicationDocuments {
		errs.Add("document_urls", fmt.Sprintf("at most %d documents", maxApplicationDocuments))
	}
	for _, d := range docs {
		if !isHTTPURL(d) {
			errs.Add("document_urls", "must be http(s) URLs")
			break
		}
	}
	if !errs.Empty() {
		return models.CounselorApplication{}, Invalid(errs)
	}

	app, err := s.store.CreateApplication(ctx, models.CounselorApplication{
		ID:              uuid.New(),
		UserID:          actor.ID,
		Credentials:     credentials,
		YearsExperience: in.YearsExperience,
		Specializations: specs,
		ProfessionalBio: bio,
		DocumentURLs:    docs,
		Status:          models.ApplicationPending,
	})
	if errors.Is(err, ErrDuplicate) {
		return models.CounselorApplication{}, Conflict("APPLICATION_PENDING", "You already have a pending application")
	}
	if err != nil {
		return models.CounselorApplication{}, fmt.Errorf("create application: %w", err)
	}
	s.log.Infow("counselor application submitted", "application_id", app.ID, "user_id", actor.ID)
	return app, nil
}

func (s *ApplicationService) Mine(ctx context.Context, userID uuid.UUID) (models.CounselorApplication, error) {
	app, err := s.store.LatestApplication(ctx, userID)
	if err != nil {
		return app, notFoundAs(err, "application")
	}
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (models.CounselorApplication, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return app, notFoundAs(err, "application")
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, status string, limit, offset int) ([]models.CounselorApplication, error) {
	st := models.ApplicationStatus(status)
	if status != "" && !st.Valid() {
		return nil, InvalidField("status", "must be pending, approved or rejected")
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListApplications(ctx, st, limit, offset)
}

// Review approves or rejects an application. Repeating the same decision
// returns the current state; approving again also re-asserts the counselor role.
func (s *ApplicationService) Review(ctx context.Context, actor Actor, id uuid.UUID, in ReviewInput) (models.CounselorApplication, error) {
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != "approve" && action != "reject" {
		return models.CounselorApplication{}, InvalidField("action", "must be approve or reject")
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > 2000 {
		return models.CounselorApplication{}, InvalidField("notes", "must be at most 2000 characters")
	}

	changed := false
	decide := func(cur models.CounselorApplication) (models.CounselorApplication, bool, error) {
		next, promote, err := decideReview(cur, action, actor.ID, notes, s.now())
		changed = err == nil && next.Status != cur.Status
		return next, promote, err
	}

	app, err := s.store.ReviewApplication(ctx, id, decide)
	if err != nil {
		return models.CounselorApplication{}, notFoundAs(err, "application")
	}
	if !changed {
		return app, nil
	}

	s.log.Infow("counselor application reviewed", "application_id", app.ID, "status", app.Status, "reviewer", actor.ID)
	if app.Status == models.ApplicationApproved {
		invalidateCounselor(ctx, s.cache, s.log, app.UserID)
	}
	recordAudit(ctx, s.audit, s.log, models.AuditEvent{
		Kind:       models.AuditApplicationReview,
		ActorID:    actor.ID.String(),
		TargetType: "counselor_application",
		TargetID:   app.ID.String(),
		Action:     action,
		Reason:     notes,
		IPAddress:  actor.IP,
		Metadata:   map[string]interface{}{"user_id": app.UserID.String()},
	})
	if err := s.notifier.ApplicationReviewed(ctx, app); err != nil {
		s.log.Warnw("enqueue application notification failed", "application_id", app.ID, "error", err)
	}
	return app, nil
}

// decideReview is the pure decision table for a review action.
func decideReview(cur models.CounselorApplication, action string, reviewer uuid.UUID, notes string, now time.Time) (models.CounselorApplication, bool, error) {
	target := models.ApplicationRejected
	if action == "approve" {
		target = models.ApplicationApproved
	}

	switch cur.Status {
	case target:
		return cur, target == models.ApplicationApproved, nil
	case models.ApplicationPending:
		next := cur
		at := now.UTC()
		next.Status = target
		next.ReviewedBy = &reviewer
		next.ReviewedAt = &at
		next.ReviewNotes = notes
		return next, target == models.ApplicationApproved, nil
	default:
		return cur, false, Conflict("APPLICATION_DECIDED", fmt.Sprintf("Application was already %s", cur.Status))
	}
}
