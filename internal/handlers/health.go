package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the readiness endpoint.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	deps map[string]Pinger
	log  *zap.SugaredLogger
}

func NewHealthHandler(deps map[string]Pinger, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{deps: deps, log: log}
}

// Live answers as long as the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// Ready pings every dependency and answers 503 when one is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.deps))
	healthy := true
	for name, ping := range h.deps {
		if err := ping(ctx); err != nil {
			h.log.Warnw("readiness check failed", "dependency", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	if !healthy {
		httpx.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "A dependency is unavailable", status)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}
