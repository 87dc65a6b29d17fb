package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PgFTS searches visible posts with PostgreSQL full-text search over the
// generated forum_posts.search column.
type PgFTS struct {
	db *sqlx.DB
}

func NewPgFTS(db *sqlx.DB) *PgFTS { return &PgFTS{db: db} }

// Healthy is always true; without Postgres nothing else works either.
func (p *PgFTS) Healthy() bool { return true }

type ftsRow struct {
	ID    uuid.UUID `db:"id"`
	Total int       `db:"total"`
}

func (p *PgFTS) Search(ctx context.Context, q Query) ([]uuid.UUID, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	q = q.normalized()
	var rows []ftsRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT id, COUNT(*) OVER () AS total
		FROM forum_posts, websearch_to_tsquery('english', $1) query
		WHERE search @@ query AND is_approved AND NOT is_removed
		ORDER BY ts_rank(search, query) DESC, created_at DESC
		LIMIT $2 OFFSET $3`, q.Text, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	ids := make([]uuid.UUID, len(rows))
	total := 0
	for i, r := range rows {
		ids[i] = r.ID
		total = r.Total
	}
	return ids, total, nil
}
