package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minTitleLength   = 3
	maxTitleLength   = 200
	maxPostLength    = 10000
	maxCommentLength = 2000
	maxReportReason  = 500
)

type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostView is a post with the comments the caller may see.
type PostView struct {
	models.Post
	Comments []models.Comment `json:"comments"`
}

type ForumService struct {
	store       ForumStore
	screen      *ContentScreen
	audit       Auditor
	notifier    Notifier
	autoApprove bool
	now         func() time.Time
	log         *zap.SugaredLogger
}

func NewForumService(store ForumStore, screen *ContentScreen, audit Auditor, notifier Notifier, autoApprove bool, log *zap.SugaredLogger) *ForumService {
	return &ForumService{
		store:       store,
		screen:      screen,
		audit:       audit,
		notifier:    notifier,
		autoApprove: autoApprove,
		now:         time.Now,
		log:         log,
	}
}

func (s *ForumService) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListVisiblePosts(ctx, limit, offset)
}

// GetPost returns a post and its comments. Hidden items are only shown to
// their author and to moderators.
func (s *ForumService) GetPost(ctx context.Context, actor Actor, id uuid.UUID) (PostView, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return PostView{}, notFoundAs(err, "post")
	}
	moderator := actor.Can(rbac.ModerateForum)
	if !post.Visible() && post.UserID != actor.ID && !moderator {
		return PostView{}, NotFound("post")
	}

	all, err := s.store.ListComments(ctx, id)
	if err != nil {
		return PostView{}, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if c.Visible() || c.UserID == actor.ID || moderator {
			comments = append(comments, c)
		}
	}
	return PostView{Post: post, Comments: comments}, nil
}

// CreatePost screens and stores a new post. Threatening content is rejected;
// self-harm content is stored flagged and the result asks for support resources.
func (s *ForumService) CreatePost(ctx context.Context, actor Actor, in PostInput) (models.Post, ScreenResult, error) {
	title, content, err := validatePost(in)
	if err != nil {
		return models.Post{}, ScreenResult{}, err
	}
	res, err := s.screenContent(ctx, actor, models.TargetPost, title, content)
	if err != nil {
		return models.Post{}, res, err
	}

	post := models.Post{
		ID:              uuid.New(),
		UserID:          actor.ID,
		Title:           title,
		Content:         content,
		ModerationState: s.initialState(actor, res),
	}
	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return models.Post{}, res, fmt.Errorf("create post: %w", err)
	}
	s.log.Infow("post created", "post_id", created.ID, "approved", created.IsApproved, "flagged", created.IsFlagged)
	s.syncPost(ctx, created.ID)
	return created, res, nil
}

// UpdatePost edits the author's own post. Edits race with moderation on the
// version column.
func (s *ForumService) UpdatePost(ctx context.Context, actor Actor, id uuid.UUID, in PostInput) (models.Post, ScreenResult, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, ScreenResult{}, notFoundAs(err, "post")
	}
	if post.UserID != actor.ID {
		return models.Post{}, ScreenResult{}, Forbidden("Only the author can edit this post")
	}
	if post.IsRemoved {
		return models.Post{}, ScreenResult{}, Conflict("ITEM_REMOVED", "Removed posts cannot be edited")
	}
	title, content, err := validatePost(in)
	if err != nil {
		return models.Post{}, ScreenResult{}, err
	}
	res, err := s.screenContent(ctx, actor, models.TargetPost, title, content)
	if err != nil {
		return models.Post{}, res, err
	}

	updated, err := s.store.UpdatePostContent(ctx, id, title, content, post.IsFlagged || res.SelfHarm, post.Version)
	if err != nil {
		return models.Post{}, res, s.writeError(err, "post")
	}
	s.syncPost(ctx, id)
	return updated, res, nil
}

// DeletePost soft-removes a post on behalf of its author (or an admin).
func (s *ForumService) DeletePost(ctx context.Context, actor Actor, id uuid.UUID) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return notFoundAs(err, "post")
	}
	if post.UserID != actor.ID && !actor.Can(rbac.ModerateForum) {
		return Forbidden("Only the author can delete this post")
	}
	reason := "deleted by author"
	if post.UserID != actor.ID {
		reason = "deleted by moderator"
	}
	next, changed, err := ApplyModeration(models.TargetPost, post.ModerationState, models.ActionRemove, actor.ID, reason, s.now())
	if err != nil || !changed {
		return err
	}
	if _, err := s.store.SavePostModeration(ctx, id, next, post.Version); err != nil {
		return s.writeError(err, "post")
	}
	if post.UserID != actor.ID {
		s.recordModeration(ctx, actor, models.TargetPost, id, models.ActionRemove, reason)
	}
	s.syncPost(ctx, id)
	return nil
}

func (s *ForumService) CreateComment(ctx context.Context, actor Actor, postID uuid.UUID, content string) (models.Comment, ScreenResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, ScreenResult{}, InvalidField("content", "is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return models.Comment{}, ScreenResult{}, InvalidField("content", fmt.Sprintf("must be at most %d characters", maxCommentLength))
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return models.Comment{}, ScreenResult{}, notFoundAs(err, "post")
	}
	if !post.Visible() {
		return models.Comment{}, ScreenResult{}, NotFound("post")
	}
	res, err := s.screenContent(ctx, actor, models.TargetComment, content)
	if err != nil {
		return models.Comment{}, res, err
	}

	created, err := s.store.CreateComment(ctx, models.Comment{
		ID:              uuid.New(),
		PostID:          postID,
		UserID:          actor.ID,
		Content:         content,
		ModerationState: s.initialState(actor, res),
	})
	if err != nil {
		return models.Comment{}, res, fmt.Errorf("create comment: %w", err)
	}
	return created, res, nil
}

// Report records one report per user per item. Reporting the same item again
// succeeds without counting twice; the return value tells whether it counted.
func (s *ForumService) Report(ctx context.Context, actor Actor, target models.ForumTarget, id uuid.UUID, reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReportReason {
		return false, InvalidField("reason", fmt.Sprintf("must be at most %d characters", maxReportReason))
	}

	var state models.ModerationState
	var owner uuid.UUID
	switch target {
	case models.TargetPost:
		post, err := s.store.GetPost(ctx, id)
		if err != nil {
			return false, notFoundAs(err, "post")
		}
		state, owner = post.ModerationState, post.UserID
	case models.TargetComment:
		comment, err := s.store.GetComment(ctx, id)
		if err != nil {
			return false, notFoundAs(err, "comment")
		}
		state, owner = comment.ModerationState, comment.UserID
	default:
		return false, InvalidField("target", "must be post or comment")
	}
	if !state.Visible() && owner != actor.ID {
		return false, NotFound(string(target))
	}
	if owner == actor.ID {
		return false, InvalidField("target", "you cannot report your own content")
	}
	if _, _, err := ApplyModeration(target, state, models.ActionReport, actor.ID, "", s.now()); err != nil {
		return false, err
	}

	added, err := s.store.AddReport(ctx, target, id, actor.ID, reason)
	if err != nil {
		return false, fmt.Errorf("add report: %w", err)
	}
	if added {
		s.log.Infow("content reported", "target", target, "target_id", id, "reporter", actor.ID)
	}
	return added, nil
}

// ModeratePost applies a moderation action. A concurrent change to the same
// post makes this call fail with a conflict instead of overwriting it.
func (s *ForumService) ModeratePost(ctx context.Context, actor Actor, id uuid.UUID, action models.ModerationAction, reason string) (models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, notFoundAs(err, "post")
	}
	next, changed, err := ApplyModeration(models.TargetPost, post.ModerationState, action, actor.ID, reason, s.now())
	if err != nil {
		return models.Post{}, err
	}
	if !changed {
		return post, nil
	}
	updated, err := s.store.SavePostModeration(ctx, id, next, post.Version)
	if err != nil {
		return models.Post{}, s.writeError(err, "post")
	}
	s.recordModeration(ctx, actor, models.TargetPost, id, action, reason)
	s.syncPost(ctx, id)
	return updated, nil
}

func (s *ForumService) ModerateComment(ctx context.Context, actor Actor, id uuid.UUID, action models.ModerationAction, reason string) (models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, notFoundAs(err, "comment")
	}
	next, changed, err := ApplyModeration(models.TargetComment, comment.ModerationState, action, actor.ID, reason, s.now())
	if err != nil {
		return models.Comment{}, err
	}
	if !changed {
		return comment, nil
	}
	updated, err := s.store.SaveCommentModeration(ctx, id, next, comment.Version)
	if err != nil {
		return models.Comment{}, s.writeError(err, "comment")
	}
	s.recordModeration(ctx, actor, models.TargetComment, id, action, reason)
	s.syncPost(ctx, comment.PostID)
	return updated, nil
}

func (s *ForumService) PostQueue(ctx context.Context, state string, limit, offset int) ([]models.Post, error) {
	q, err := parseQueue(state)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListPosts(ctx, q, limit, offset)
}

func (s *ForumService) CommentQueue(ctx context.Context, state string, limit, offset int) ([]models.Comment, error) {
	q, err := parseQueue(state)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListCommentsForModeration(ctx, q, limit, offset)
}

// initialState decides approval for new content from trusted roles and the
// auto-approve setting. Self-harm content is always flagged for review.
func (s *ForumService) initialState(actor Actor, res ScreenResult) models.ModerationState {
	var st models.ModerationState
	if s.autoApprove || actor.Role == models.RoleCounselor || actor.Role == models.RoleAdmin {
		at := s.now().UTC()
		by := actor.ID
		st.IsApproved = true
		st.ApprovedBy = &by
		st.ApprovedAt = &at
	}
	st.IsFlagged = res.SelfHarm
	return st
}

func (s *ForumService) screenContent(ctx context.Context, actor Actor, target models.ForumTarget, texts ...string) (ScreenResult, error) {
	res := s.screen.Screen(texts...)
	if !res.Threat {
		return res, nil
	}
	s.log.Warnw("content rejected", "user_id", actor.ID, "target", target, "matched", res.Matched)
	recordAudit(ctx, s.audit, s.log, models.AuditEvent{
		Kind:       models.AuditContentViolation,
		ActorID:    actor.ID.String(),
		TargetType: string(target),
		Action:     "rejected",
		IPAddress:  actor.IP,
		Metadata:   map[string]interface{}{"matched": res.Matched},
	})
	return res, Unprocessable("CONTENT_REJECTED", "This content violates the community guidelines", nil)
}

func (s *ForumService) recordModeration(ctx context.Context, actor Actor, target models.ForumTarget, id uuid.UUID, action models.ModerationAction, reason string) {
	s.log.Infow("forum moderation", "target", target, "target_id", id, "action", action, "moderator", actor.ID)
	recordAudit(ctx, s.audit, s.log, models.AuditEvent{
		Kind:       models.AuditForumModeration,
		ActorID:    actor.ID.String(),
		TargetType: string(target),
		TargetID:   id.String(),
		Action:     string(action),
		Reason:     strings.TrimSpace(reason),
		IPAddress:  actor.IP,
	})
}

func (s *ForumService) syncPost(ctx context.Context, id uuid.UUID) {
	if err := s.notifier.PostChanged(ctx, id); err != nil {
		s.log.Warnw("enqueue search sync failed", "post_id", id, "error", err)
	}
}

func (s *ForumService) writeError(err error, what string) error {
	if errors.Is(err, ErrStaleVersion) {
		return Conflict("CONCURRENT_MODIFICATION", fmt.Sprintf("The %s was changed by someone else; reload and try again", what))
	}
	return notFoundAs(err, what)
}

func validatePost(in PostInput) (string, string, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	var errs utils.ValidationErrors
	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		errs.Add("title", fmt.Sprintf("must be between %d and %d characters", minTitleLength, maxTitleLength))
	}
	if content == "" {
		errs.Add("content", "is required")
	}
	checkLength(&errs, "content", content, maxPostLength)
	if !errs.Empty() {
		return "", "", Invalid(errs)
	}
	return title, content, nil
}

func parseQueue(state string) (models.ModerationQueue, error) {
	if state == "" {
		return models.QueuePending, nil
	}
	q := models.ModerationQueue(state)
	if !q.Valid() {
		return "", InvalidField("state", "must be pending, flagged, removed or all")
	}
	return q, nil
}
