package store

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, display_name, bio, avatar_url, role, credentials, years_experience,
	specializations, availability, professional_bio, interests, triggers, coping_strategies,
	created_at, updated_at`

// CreateAccount inserts the account and its profile in one transaction.
func (s *Store) CreateAccount(ctx context.Context, account models.Account, profile models.Profile) (models.Profile, error) {
	var out models.Profile
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO accounts (email, password_hash, is_active) VALUES ($1, $2, $3) RETURNING id`,
			account.Email, account.PasswordHash, account.IsActive,
		).Scan(&id); err != nil {
			return mapErr(err)
		}
		role := profile.Role
		if role == "" {
			role = models.RoleUser
		}
		return mapErr(tx.GetContext(ctx, &out,
			`INSERT INTO profiles (id, display_name, role) VALUES ($1, $2, $3) RETURNING `+profileColumns,
			id, profile.DisplayName, role,
		))
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("create account: %w", err)
	}
	return out, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var a models.Account
	err := s.db.GetContext(ctx, &a,
		`SELECT id, email, password_hash, is_active, created_at FROM accounts WHERE email = $1`, email)
	return a, mapErr(err)
}

func (s *Store) AccountEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string
	err := s.db.GetContext(ctx, &email, `SELECT email FROM accounts WHERE id = $1 AND is_active`, id)
	return email, mapErr(err)
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return p, mapErr(err)
}

func (s *Store) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	var out models.Profile
	err := s.db.GetContext(ctx, &out, `
		UPDATE profiles SET
			display_name = $2, bio = $3, avatar_url = $4,
			credentials = $5, years_experience = $6, specializations = $7, availability = $8, professional_bio = $9,
			interests = $10, triggers = $11, coping_strategies = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		p.ID, p.DisplayName, p.Bio, p.AvatarURL,
		p.Credentials, p.YearsExperience, emptyIfNil(p.Specializations), emptyIfNil(p.Availability), p.ProfessionalBio,
		emptyIfNil(p.Interests), emptyIfNil(p.Triggers), emptyIfNil(p.CopingStrategies),
	)
	return out, mapErr(err)
}

// ListProfiles pages through profiles, newest first. An empty role lists all.
func (s *Store) ListProfiles(ctx context.Context, role models.Role, limit, offset int) ([]models.Profile, error) {
	out := []models.Profile{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+profileColumns+` FROM profiles
		WHERE ($1::text = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, string(role), limit, offset)
	return out, mapErr(err)
}

func (s *Store) ListCounselors(ctx context.Context) ([]models.Profile, error) {
	out := []models.Profile{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+profileColumns+` FROM profiles p
		WHERE p.role = 'counselor'
		  AND EXISTS (SELECT 1 FROM accounts a WHERE a.id = p.id AND a.is_active)
		ORDER BY p.years_experience DESC, p.display_name`)
	return out, mapErr(err)
}

func (s *Store) SetRole(ctx context.Context, id uuid.UUID, role models.Role) (models.Profile, error) {
	var out models.Profile
	err := s.db.GetContext(ctx, &out,
		`UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+profileColumns,
		id, role)
	return out, mapErr(err)
}
