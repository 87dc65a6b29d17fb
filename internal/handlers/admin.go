package handlers

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/middleware"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	insightsCacheKey = "admin:insights"
	insightsCacheTTL = time.Minute
)

type InsightsSource interface {
	Insights(ctx context.Context) (models.Insights, error)
}

type AuditReader interface {
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error)
}

// IPBlocker manages rate-limit blocks. It is nil when the Redis limiter is not in use.
type IPBlocker interface {
	BlockedIPs(ctx context.Context) ([]middleware.BlockedIP, error)
	Unblock(ctx context.Context, ip string) error
}

type AdminHandler struct {
	insights InsightsSource
	cache    services.Cache
	audit    AuditReader
	blocker  IPBlocker
	log      *zap.SugaredLogger
}

func NewAdminHandler(insights InsightsSource, cache services.Cache, audit AuditReader, blocker IPBlocker, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{insights: insights, cache: cache, audit: audit, blocker: blocker, log: log}
}

// Insights returns the dashboard counters, cached for a minute.
func (h *AdminHandler) Insights(w http.ResponseWriter, r *http.Request) {
	var out models.Insights
	if hit, err := h.cache.Get(r.Context(), insightsCacheKey, &out); err == nil && hit {
		httpx.WriteJSON(w, http.StatusOK, out)
		return
	}
	out, err := h.insights.Insights(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	if err := h.cache.Set(r.Context(), insightsCacheKey, out, insightsCacheTTL); err != nil {
		h.log.Warnw("cache insights failed", "error", err)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Audit lists audit events. Query params: kind, target_id, actor_id, limit.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	events, err := h.audit.List(r.Context(), models.AuditFilter{
		Kind:     models.AuditKind(q.Get("kind")),
		TargetID: q.Get("target_id"),
		ActorID:  q.Get("actor_id"),
		Limit:    limit,
	})
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

func (h *AdminHandler) BlockedIPs(w http.ResponseWriter, r *http.Request) {
	if h.blocker == nil {
		httpx.WriteJSON(w, http.StatusOK, []middleware.BlockedIP{})
		return
	}
	ips, err := h.blocker.BlockedIPs(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ips)
}

func (h *AdminHandler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	if net.ParseIP(ip) == nil {
		httpx.BadRequest(w, "invalid ip")
		return
	}
	if h.blocker != nil {
		if err := h.blocker.Unblock(r.Context(), ip); err != nil {
			httpx.Fail(w, r, h.log, err)
			return
		}
	}
	if a, ok := middleware.UserFromContext(r.Context()); ok {
		h.log.Infow("ip unblocked", "ip", ip, "admin", a.UserID)
	}
	w.WriteHeader(http.StatusNoContent)
}
