package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store implements the services persistence interfaces on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

// DB exposes the pool for health checks and the full-text search fallback.
func (s *Store) DB() *sqlx.DB { return s.db }

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

// mapErr translates driver errors into the services sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return services.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", services.ErrDuplicate, pqErr.Constraint)
		case pqExclusionViolation:
			return fmt.Errorf("%w: %s", services.ErrSlotTaken, pqErr.Constraint)
		}
	}
	return err
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var (
	_ services.AccountStore     = (*Store)(nil)
	_ services.ProfileStore     = (*Store)(nil)
	_ services.ApplicationStore = (*Store)(nil)
	_ services.CounselingStore  = (*Store)(nil)
	_ services.ForumStore       = (*Store)(nil)
	_ services.CheckInStore     = (*Store)(nil)
)

// emptyIfNil keeps NOT NULL array columns from receiving NULL.
func emptyIfNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
