package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const postSelect = `
	SELECT fp.id, fp.user_id, COALESCE(pr.display_name, '') AS author_name, fp.title, fp.content,
		(SELECT COUNT(*) FROM forum_comments fc
		 WHERE fc.post_id = fp.id AND fc.is_approved AND NOT fc.is_removed) AS comment_count,
		fp.is_approved, fp.approved_by, fp.approved_at, fp.is_flagged, fp.report_count,
		fp.is_removed, fp.removed_by, fp.removed_at, fp.removal_reason, fp.is_pinned, fp.version,
		fp.created_at, fp.updated_at
	FROM forum_posts fp
	LEFT JOIN profiles pr ON pr.id = fp.user_id`

const commentSelect = `
	SELECT fc.id, fc.post_id, fc.user_id, COALESCE(pr.display_name, '') AS author_name, fc.content,
		fc.is_approved, fc.approved_by, fc.approved_at, fc.is_flagged, fc.report_count,
		fc.is_removed, fc.removed_by, fc.removed_at, fc.removal_reason, fc.is_pinned, fc.version,
		fc.created_at, fc.updated_at
	FROM forum_comments fc
	LEFT JOIN profiles pr ON pr.id = fc.user_id`

// queueClause filters a moderation queue; alias is the table alias.
func queueClause(alias string, q models.ModerationQueue) string {
	switch q {
	case models.QueuePending:
		return fmt.Sprintf("NOT %[1]s.is_approved AND NOT %[1]s.is_removed", alias)
	case models.QueueFlagged:
		return fmt.Sprintf("%[1]s.is_flagged AND NOT %[1]s.is_removed", alias)
	case models.QueueRemoved:
		return alias + ".is_removed"
	default:
		return "TRUE"
	}
}

func (s *Store) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	var id uuid.UUID
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO forum_posts (user_id, title, content, is_approved, approved_by, approved_at, is_flagged)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		p.UserID, p.Title, p.Content, p.IsApproved, p.ApprovedBy, p.ApprovedAt, p.IsFlagged,
	).Scan(&id)
	if err != nil {
		return models.Post{}, mapErr(err)
	}
	return s.GetPost(ctx, id)
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	var p models.Post
	err := s.db.GetContext(ctx, &p, postSelect+` WHERE fp.id = $1`, id)
	return p, mapErr(err)
}

// ListVisiblePosts lists approved, non-removed posts with pinned posts first.
func (s *Store) ListVisiblePosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	out := []models.Post{}
	err := s.db.SelectContext(ctx, &out, postSelect+`
		WHERE fp.is_approved AND NOT fp.is_removed
		ORDER BY fp.is_pinned DESC, fp.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	return out, mapErr(err)
}

// ListPosts serves the moderation queues, oldest first.
func (s *Store) ListPosts(ctx context.Context, q models.ModerationQueue, limit, offset int) ([]models.Post, error) {
	out := []models.Post{}
	err := s.db.SelectContext(ctx, &out, postSelect+`
		WHERE `+queueClause("fp", q)+`
		ORDER BY fp.report_count DESC, fp.created_at ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	return out, mapErr(err)
}

// PostsByIDs loads visible posts in the given order, skipping ids that no longer qualify.
func (s *Store) PostsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	query, args, err := sqlx.In(postSelect+` WHERE fp.id IN (?) AND fp.is_approved AND NOT fp.is_removed`, ids)
	if err != nil {
		return nil, fmt.Errorf("build posts query: %w", err)
	}
	var rows []models.Post
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, mapErr(err)
	}
	byID := make(map[uuid.UUID]models.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]models.Post, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpdatePostContent(ctx context.Context, id uuid.UUID, title, content string, flagged bool, expectedVersion int) (models.Post, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE forum_posts
		SET title = $2, content = $3, is_flagged = is_flagged OR $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $5`,
		id, title, content, flagged, expectedVersion)
	if err := s.checkVersioned(ctx, "forum_posts", id, res, err); err != nil {
		return models.Post{}, err
	}
	return s.GetPost(ctx, id)
}

func (s *Store) SavePostModeration(ctx context.Context, id uuid.UUID, state models.ModerationState, expectedVersion int) (models.Post, error) {
	if err := s.saveModeration(ctx, models.TargetPost, id, state, expectedVersion); err != nil {
		return models.Post{}, err
	}
	return s.GetPost(ctx, id)
}

func (s *Store) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	var id uuid.UUID
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO forum_comments (post_id, user_id, content, is_approved, approved_by, approved_at, is_flagged)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.PostID, c.UserID, c.Content, c.IsApproved, c.ApprovedBy, c.ApprovedAt, c.IsFlagged,
	).Scan(&id)
	if err != nil {
		return models.Comment{}, mapErr(err)
	}
	return s.GetComment(ctx, id)
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	var c models.Comment
	err := s.db.GetContext(ctx, &c, commentSelect+` WHERE fc.id = $1`, id)
	return c, mapErr(err)
}

// ListComments returns every comment on a post; callers filter by visibility.
func (s *Store) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	out := []models.Comment{}
	err := s.db.SelectContext(ctx, &out, commentSelect+` WHERE fc.post_id = $1 ORDER BY fc.created_at ASC`, postID)
	return out, mapErr(err)
}

func (s *Store) ListCommentsForModeration(ctx context.Context, q models.ModerationQueue, limit, offset int) ([]models.Comment, error) {
	out := []models.Comment{}
	err := s.db.SelectContext(ctx, &out, commentSelect+`
		WHERE `+queueClause("fc", q)+`
		ORDER BY fc.report_count DESC, fc.created_at ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	return out, mapErr(err)
}

func (s *Store) SaveCommentModeration(ctx context.Context, id uuid.UUID, state models.ModerationState, expectedVersion int) (models.Comment, error) {
	if err := s.saveModeration(ctx, models.TargetComment, id, state, expectedVersion); err != nil {
		return models.Comment{}, err
	}
	return s.GetComment(ctx, id)
}

// AddReport inserts the report and bumps the target's counters in one
// transaction. A repeated report from the same user changes nothing.
func (s *Store) AddReport(ctx context.Context, target models.ForumTarget, targetID, reporterID uuid.UUID, reason string) (bool, error) {
	table, err := forumTable(target)
	if err != nil {
		return false, err
	}
	added := false
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO forum_reports (target_type, target_id, reporter_id, reason)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (target_type, target_id, reporter_id) DO NOTHING`,
			string(target), targetID, reporterID, reason)
		if err != nil {
			return mapErr(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		added = true
		res, err = tx.ExecContext(ctx, `
			UPDATE `+table+`
			SET report_count = report_count + 1, is_flagged = TRUE, version = version + 1, updated_at = NOW()
			WHERE id = $1`, targetID)
		if err != nil {
			return mapErr(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return services.ErrNotFound
		}
		return nil
	})
	return added, err
}

func forumTable(target models.ForumTarget) (string, error) {
	switch target {
	case models.TargetPost:
		return "forum_posts", nil
	case models.TargetComment:
		return "forum_comments", nil
	}
	return "", fmt.Errorf("unknown forum target %q", target)
}

// saveModeration writes the state when the stored version matches. A state
// with no reports left (unflag) also clears the report rows, so earlier
// reporters can report the item again.
func (s *Store) saveModeration(ctx context.Context, target models.ForumTarget, id uuid.UUID, m models.ModerationState, expectedVersion int) error {
	table, err := forumTable(target)
	if err != nil {
		return err
	}
	var res sql.Result
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		r, err := tx.ExecContext(ctx, `
			UPDATE `+table+` SET
				is_approved = $2, approved_by = $3, approved_at = $4, is_flagged = $5, report_count = $6,
				is_removed = $7, removed_by = $8, removed_at = $9, removal_reason = $10, is_pinned = $11,
				version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $12`,
			id, m.IsApproved, m.ApprovedBy, m.ApprovedAt, m.IsFlagged, m.ReportCount,
			m.IsRemoved, m.RemovedBy, m.RemovedAt, m.RemovalReason, m.IsPinned, expectedVersion)
		if err != nil {
			return err
		}
		res = r
		if n, _ := r.RowsAffected(); n == 0 || m.ReportCount > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM forum_reports WHERE target_type = $1 AND target_id = $2`, string(target), id)
		return err
	})
	return s.checkVersioned(ctx, table, id, res, err)
}

// checkVersioned turns a compare-and-set UPDATE that matched no row into
// ErrStaleVersion when the row exists, or ErrNotFound when it does not.
func (s *Store) checkVersioned(ctx context.Context, table string, id uuid.UUID, res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id); err != nil {
		return mapErr(err)
	}
	if exists {
		return services.ErrStaleVersion
	}
	return services.ErrNotFound
}
