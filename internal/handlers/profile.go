package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileAPI interface {
	Get(ctx context.Context, id uuid.UUID) (models.Profile, error)
	Update(ctx context.Context, actor services.Actor, upd models.ProfileUpdate) (models.Profile, error)
	Counselors(ctx context.Context, specialization string) ([]models.CounselorListing, error)
	Counselor(ctx context.Context, id uuid.UUID) (models.CounselorListing, error)
	ListUsers(ctx context.Context, role string, limit, offset int) ([]models.Profile, error)
	ChangeRole(ctx context.Context, actor services.Actor, target uuid.UUID, role string) (models.Profile, error)
}

type ProfileHandler struct {
	profiles ProfileAPI
	log      *zap.SugaredLogger
}

func NewProfileHandler(profiles ProfileAPI, log *zap.SugaredLogger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), a.ID)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// Update edits the caller's profile. Counselor fields are refused for other roles.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if !decode(w, r, &upd) {
		return
	}
	p, err := h.profiles.Update(r.Context(), a, upd)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Counselors(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.Counselors(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ProfileHandler) Counselor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.profiles.Counselor(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	users, err := h.profiles.ListUsers(r.Context(), r.URL.Query().Get("role"), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *ProfileHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in roleRequest
	if !decode(w, r, &in) {
		return
	}
	p, err := h.profiles.ChangeRole(r.Context(), a, id, in.Role)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
