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

type CounselingAPI interface {
	Book(ctx context.Context, actor services.Actor, in services.BookingInput) (models.CounselingSession, error)
	List(ctx context.Context, actor services.Actor, role, status string, limit, offset int) ([]models.CounselingSession, error)
	Get(ctx context.Context, actor services.Actor, id uuid.UUID) (models.CounselingSession, error)
	Update(ctx context.Context, actor services.Actor, id uuid.UUID, upd services.SessionUpdate) (models.CounselingSession, error)
	Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error
	CanJoinRoom(ctx context.Context, actor services.Actor, id uuid.UUID) (models.CounselingSession, error)
}

type CounselingHandler struct {
	sessions CounselingAPI
	log      *zap.SugaredLogger
}

func NewCounselingHandler(sessions CounselingAPI, log *zap.SugaredLogger) *CounselingHandler {
	return &CounselingHandler{sessions: sessions, log: log}
}

// Book schedules a session with the caller as patient.
func (h *CounselingHandler) Book(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in services.BookingInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.sessions.Book(r.Context(), a, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, s)
}

func (h *CounselingHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	limit, offset := page(r)
	q := r.URL.Query()
	list, err := h.sessions.List(r.Context(), a, q.Get("role"), q.Get("status"), limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *CounselingHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.sessions.Get(r.Context(), a, id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *CounselingHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var upd services.SessionUpdate
	if !decode(w, r, &upd) {
		return
	}
	s, err := h.sessions.Update(r.Context(), a, id, upd)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// Delete answers 204 whether or not the session still existed.
func (h *CounselingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), a, id); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
