package store

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const applicationSelect = `
	SELECT a.id, a.user_id, COALESCE(p.display_name, '') AS applicant_name, a.credentials,
		a.years_experience, a.specializations, a.professional_bio, a.document_urls, a.status,
		a.reviewed_by, a.reviewed_at, a.review_notes, a.created_at, a.updated_at
	FROM counselor_applications a
	LEFT JOIN profiles p ON p.id = a.user_id`

// CreateApplication returns ErrDuplicate when the user already has a pending application.
func (s *Store) CreateApplication(ctx context.Context, app models.CounselorApplication) (models.CounselorApplication, error) {
	var id uuid.UUID
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO counselor_applications
			(user_id, credentials, years_experience, specializations, professional_bio, document_urls)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		app.UserID, app.Credentials, app.YearsExperience, emptyIfNil(app.Specializations),
		app.ProfessionalBio, emptyIfNil(app.DocumentURLs),
	).Scan(&id)
	if err != nil {
		return models.CounselorApplication{}, mapErr(err)
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (models.CounselorApplication, error) {
	var app models.CounselorApplication
	err := s.db.GetContext(ctx, &app, applicationSelect+` WHERE a.id = $1`, id)
	return app, mapErr(err)
}

func (s *Store) LatestApplication(ctx context.Context, userID uuid.UUID) (models.CounselorApplication, error) {
	var app models.CounselorApplication
	err := s.db.GetContext(ctx, &app,
		applicationSelect+` WHERE a.user_id = $1 ORDER BY a.created_at DESC LIMIT 1`, userID)
	return app, mapErr(err)
}

// ListApplications returns the oldest first so reviewers work the queue in order.
func (s *Store) ListApplications(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]models.CounselorApplication, error) {
	out := []models.CounselorApplication{}
	err := s.db.SelectContext(ctx, &out, applicationSelect+`
		WHERE ($1::text = '' OR a.status = $1)
		ORDER BY a.created_at ASC
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	return out, mapErr(err)
}

func (s *Store) ReviewApplication(ctx context.Context, id uuid.UUID, decide services.ReviewFunc) (models.CounselorApplication, error) {
	var out models.CounselorApplication
	err := withRetry(ctx, func() error {
		return s.withTx(ctx, func(tx *sqlx.Tx) error {
			var cur models.CounselorApplication
			if err := tx.GetContext(ctx, &cur, applicationSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id); err != nil {
				return mapErr(err)
			}
			next, promote, err := decide(cur)
			if err != nil {
				return err
			}
			if next.Status != cur.Status {
				if _, err := tx.ExecContext(ctx, `
					UPDATE counselor_applications
					SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5, updated_at = NOW()
					WHERE id = $1`,
					id, next.Status, next.ReviewedBy, next.ReviewedAt, next.ReviewNotes,
				); err != nil {
					return fmt.Errorf("update application: %w", err)
				}
			}
			if promote {
				if _, err := tx.ExecContext(ctx, `
					UPDATE profiles
					SET role = 'counselor', credentials = $2, years_experience = $3,
						specializations = $4, professional_bio = $5, updated_at = NOW()
					WHERE id = $1 AND role <> 'admin'`,
					next.UserID, next.Credentials, next.YearsExperience,
					emptyIfNil(next.Specializations), next.ProfessionalBio,
				); err != nil {
					return fmt.Errorf("promote applicant: %w", err)
				}
			}
			return mapErr(tx.GetContext(ctx, &out, applicationSelect+` WHERE a.id = $1`, id))
		})
	})
	return out, err
}
