package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/search"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ForumAPI interface {
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	GetPost(ctx context.Context, actor services.Actor, id uuid.UUID) (services.PostView, error)
	CreatePost(ctx context.Context, actor services.Actor, in services.PostInput) (models.Post, services.ScreenResult, error)
	UpdatePost(ctx context.Context, actor services.Actor, id uuid.UUID, in services.PostInput) (models.Post, services.ScreenResult, error)
	DeletePost(ctx context.Context, actor services.Actor, id uuid.UUID) error
	CreateComment(ctx context.Context, actor services.Actor, postID uuid.UUID, content string) (models.Comment, services.ScreenResult, error)
	Report(ctx context.Context, actor services.Actor, target models.ForumTarget, id uuid.UUID, reason string) (bool, error)
	ModeratePost(ctx context.Context, actor services.Actor, id uuid.UUID, action models.ModerationAction, reason string) (models.Post, error)
	ModerateComment(ctx context.Context, actor services.Actor, id uuid.UUID, action models.ModerationAction, reason string) (models.Comment, error)
	PostQueue(ctx context.Context, state string, limit, offset int) ([]models.Post, error)
	CommentQueue(ctx context.Context, state string, limit, offset int) ([]models.Comment, error)
}

type PostSearcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

type ForumHandler struct {
	forum  ForumAPI
	search PostSearcher
	log    *zap.SugaredLogger
}

func NewForumHandler(forum ForumAPI, search PostSearcher, log *zap.SugaredLogger) *ForumHandler {
	return &ForumHandler{forum: forum, search: search, log: log}
}

// postResult is a written post. SupportResources is set when the content
// mentioned self-harm.
type postResult struct {
	models.Post
	SupportResources []string `json:"support_resources,omitempty"`
}

type commentResult struct {
	models.Comment
	SupportResources []string `json:"support_resources,omitempty"`
}

func supportFor(res services.ScreenResult) []string {
	if res.SelfHarm {
		return services.SupportResources
	}
	return nil
}

type commentRequest struct {
	Content string `json:"content"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

type moderateRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type reportResponse struct {
	Counted bool `json:"counted"`
}

func (h *ForumHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	posts, err := h.forum.ListPosts(r.Context(), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

func (h *ForumHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.forum.GetPost(r.Context(), a, id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *ForumHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in services.PostInput
	if !decode(w, r, &in) {
		return
	}
	post, res, err := h.forum.CreatePost(r.Context(), a, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, postResult{Post: post, SupportResources: supportFor(res)})
}

func (h *ForumHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in services.PostInput
	if !decode(w, r, &in) {
		return
	}
	post, res, err := h.forum.UpdatePost(r.Context(), a, id, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postResult{Post: post, SupportResources: supportFor(res)})
}

func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.forum.DeletePost(r.Context(), a, id); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ForumHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in commentRequest
	if !decode(w, r, &in) {
		return
	}
	c, res, err := h.forum.CreateComment(r.Context(), a, id, in.Content)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, commentResult{Comment: c, SupportResources: supportFor(res)})
}

func (h *ForumHandler) ReportPost(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, models.TargetPost)
}

func (h *ForumHandler) ReportComment(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, models.TargetComment)
}

func (h *ForumHandler) report(w http.ResponseWriter, r *http.Request, target models.ForumTarget) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in reportRequest
	if !decode(w, r, &in) {
		return
	}
	counted, err := h.forum.Report(r.Context(), a, target, id, in.Reason)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reportResponse{Counted: counted})
}

// Search finds visible posts. Query params: q (required), limit, skip.
func (h *ForumHandler) Search(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("q"))
	if text == "" {
		httpx.BadRequest(w, "q is required")
		return
	}
	limit, offset := page(r)
	res, err := h.search.Search(r.Context(), search.Query{Text: text, Limit: limit, Offset: offset})
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// PostQueue lists posts for moderators. Query params: state, limit, skip.
func (h *ForumHandler) PostQueue(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	posts, err := h.forum.PostQueue(r.Context(), r.URL.Query().Get("state"), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

func (h *ForumHandler) CommentQueue(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	comments, err := h.forum.CommentQueue(r.Context(), r.URL.Query().Get("state"), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, comments)
}

func (h *ForumHandler) ModeratePost(w http.ResponseWriter, r *http.Request) {
	a, id, in, ok := h.moderation(w, r)
	if !ok {
		return
	}
	post, err := h.forum.ModeratePost(r.Context(), a, id, models.ModerationAction(in.Action), in.Reason)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (h *ForumHandler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	a, id, in, ok := h.moderation(w, r)
	if !ok {
		return
	}
	c, err := h.forum.ModerateComment(r.Context(), a, id, models.ModerationAction(in.Action), in.Reason)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *ForumHandler) moderation(w http.ResponseWriter, r *http.Request) (services.Actor, uuid.UUID, moderateRequest, bool) {
	var in moderateRequest
	a, ok := actor(w, r)
	if !ok {
		return a, uuid.Nil, in, false
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return a, id, in, false
	}
	if !decode(w, r, &in) {
		return a, id, in, false
	}
	in.Action = strings.ToLower(strings.TrimSpace(in.Action))
	if !models.ModerationAction(in.Action).Valid() {
		httpx.Fail(w, r, h.log, services.InvalidField("action", "must be approve, flag, unflag, report, remove, restore, pin or unpin"))
		return a, id, in, false
	}
	return a, id, in, true
}
