package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/middleware"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthAPI interface {
	Signup(ctx context.Context, in services.SignupInput) (models.Profile, error)
	Signin(ctx context.Context, email, password string) (services.SigninResult, error)
	Signout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, token string) (uuid.UUID, string, error)
}

// CookieConfig controls the session cookie set on sign-in.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   AuthAPI
	token  func(*http.Request) string
	cookie CookieConfig
	log    *zap.SugaredLogger
}

// NewAuthHandler builds the account endpoints. token extracts the session
// token from a request, normally Authorizer.Token.
func NewAuthHandler(auth AuthAPI, token func(*http.Request) string, cookie CookieConfig, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{auth: auth, token: token, cookie: cookie, log: log}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeResponse is the caller's profile with the actions their role allows.
type MeResponse struct {
	User         models.Profile    `json:"user"`
	Capabilities rbac.Capabilities `json:"capabilities"`
}

// Signup creates an account with the user role.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if !decode(w, r, &in) {
		return
	}
	profile, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, profile)
}

// Signin starts a session and sets the session cookie.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var in signinRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := h.auth.Signin(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(time.Until(res.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Signout revokes the current session when there is one and always clears
// the cookie.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if token := h.token(r); token != "" {
		_, sessionID, err := h.auth.Resolve(r.Context(), token)
		switch {
		case err == nil:
			if err := h.auth.Signout(r.Context(), sessionID); err != nil {
				httpx.Fail(w, r, h.log, err)
				return
			}
		case !errors.Is(err, services.ErrUnauthenticated):
			httpx.Fail(w, r, h.log, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MeResponse{User: u.Profile, Capabilities: u.Capabilities})
}
