package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckInAPI interface {
	Create(ctx context.Context, actor services.Actor, in services.CheckInInput) (models.CheckIn, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.CheckIn, error)
	Streak(ctx context.Context, userID uuid.UUID) (models.Streak, error)
	Summary(ctx context.Context, userID uuid.UUID, days int) ([]models.MoodDay, error)
}

type CheckInHandler struct {
	checkins CheckInAPI
	log      *zap.SugaredLogger
}

func NewCheckInHandler(checkins CheckInAPI, log *zap.SugaredLogger) *CheckInHandler {
	return &CheckInHandler{checkins: checkins, log: log}
}

func (h *CheckInHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in services.CheckInInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.checkins.Create(r.Context(), a, in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *CheckInHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	limit, offset := page(r)
	list, err := h.checkins.List(r.Context(), a.ID, limit, offset)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *CheckInHandler) Streak(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	s, err := h.checkins.Streak(r.Context(), a.ID)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// Summary returns per-day mood averages. Query param: days (default 30, max 365).
func (h *CheckInHandler) Summary(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	out, err := h.checkins.Summary(r.Context(), a.ID, days)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
