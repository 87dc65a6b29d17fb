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

type ApplicationAPI interface {
	Submit(ctx context.Context, actor services.Actor, in services.ApplicationInput) (models.CounselorApplication, error)
	Mine(ctx context.Context, userID uuid.UUID) (models.CounselorApplication, error)
	Get(ctx context.Context, id uuid.UUID) (models.CounselorApplication, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.CounselorApplication, error)
	Review(ctx context.Context, actor services.Actor, id uuid.UUID, in services.ReviewInput) (models.CounselorApplication, error)
}

type ApplicationHandler struct {
	apps ApplicationAPI
	log  *zap.SugaredLogger
}

func NewApplicationHandler(apps ApplicationAPI, log *zap.SugaredLogger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, log: log}
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in services.ApplicationInput
	if !decode(w, r, &in) {
		return
	}
	app, err := h.apps.Submit(r.Context(), a, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	app, err := h.apps.Mine(r.Context(), a.ID)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	apps, err := h.apps.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// Review approves or rejects an application. Repeating the same decision
// returns the current state with 200.
func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in services.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	app, err := h.apps.Review(r.Context(), a, id, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}
