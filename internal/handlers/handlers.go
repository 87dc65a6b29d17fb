// Package handlers exposes the HTTP API. Handlers decode and validate the
// transport layer only; every rule lives in the services.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/middleware"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// page reads limit and skip; invalid values fall back to the service defaults.
func page(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("skip"))
	return limit, offset
}

// idParam parses the {name} URL parameter. It writes a 400 and returns false
// when the value is not a UUID.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the caller stored by the auth middleware. Routes using it are
// always mounted behind Require, so a missing user is a wiring bug.
func actor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return services.Actor{}, false
	}
	return u.Actor(), true
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeBody(w, r, target); err != nil {
		httpx.BadRequest(w, err.Error())
		return false
	}
	return true
}
