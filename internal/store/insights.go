package store

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/models"
)

type labelCount struct {
	Label string `db:"label"`
	Count int    `db:"count"`
}

// Insights gathers the admin dashboard counters.
func (s *Store) Insights(ctx context.Context) (models.Insights, error) {
	out := models.Insights{
		UsersByRole:      map[string]int{},
		SessionsByStatus: map[string]int{},
	}

	var roles []labelCount
	if err := s.db.SelectContext(ctx, &roles, `SELECT role AS label, COUNT(*) AS count FROM profiles GROUP BY role`); err != nil {
		return out, fmt.Errorf("count users: %w", err)
	}
	for _, r := range roles {
		out.UsersByRole[r.Label] = r.Count
	}

	var statuses []labelCount
	if err := s.db.SelectContext(ctx, &statuses, `SELECT status AS label, COUNT(*) AS count FROM counseling_sessions GROUP BY status`); err != nil {
		return out, fmt.Errorf("count sessions: %w", err)
	}
	for _, st := range statuses {
		out.SessionsByStatus[st.Label] = st.Count
	}

	row := s.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM counselor_applications WHERE status = 'pending'),
			(SELECT COUNT(*) FROM forum_posts WHERE NOT is_approved AND NOT is_removed),
			(SELECT COUNT(*) FROM forum_posts WHERE is_flagged AND NOT is_removed),
			(SELECT COUNT(*) FROM forum_posts WHERE is_removed),
			(SELECT COUNT(*) FROM check_ins WHERE created_at >= NOW() - INTERVAL '7 days')`)
	if err := row.Scan(&out.PendingApplications, &out.PendingPosts, &out.FlaggedPosts, &out.RemovedPosts, &out.CheckInsLast7Days); err != nil {
		return out, fmt.Errorf("count queues: %w", err)
	}
	return out, nil
}
