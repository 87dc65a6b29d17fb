package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/AnshRaj112/solace-backend/pkg/clientip"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserContext is the authenticated caller, resolved once per request.
type UserContext struct {
	UserID       uuid.UUID
	SessionID    string
	Profile      models.Profile
	Role         models.Role
	Capabilities rbac.Capabilities
	IP           string
}

// Actor is the caller as the services see it.
func (u *UserContext) Actor() services.Actor {
	return services.Actor{ID: u.UserID, Name: u.Profile.DisplayName, Role: u.Role, IP: u.IP}
}

// AuthError is a failed authorization with the status it maps to.
type AuthError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, string, error)
}

type ProfileGetter interface {
	GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error)
}

type userContextKey struct{}

// Authorizer authenticates requests and checks roles.
type Authorizer struct {
	tokens     TokenResolver
	profiles   ProfileGetter
	cookieName string
	trustProxy bool
	log        *zap.SugaredLogger
}

func NewAuthorizer(tokens TokenResolver, profiles ProfileGetter, cookieName string, trustProxy bool, log *zap.SugaredLogger) *Authorizer {
	return &Authorizer{tokens: tokens, profiles: profiles, cookieName: cookieName, trustProxy: trustProxy, log: log}
}

// Token extracts the session token: bearer header, then cookie, then the
// token query parameter on WebSocket upgrades only.
func (a *Authorizer) Token(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// Authorize resolves the caller and checks that their role is one of roles.
// An empty roles list admits any authenticated caller.
func (a *Authorizer) Authorize(r *http.Request, roles ...models.Role) (*UserContext, *AuthError) {
	ctx := r.Context()
	userID, sessionID, err := a.tokens.Resolve(ctx, a.Token(r))
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return nil, &AuthError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required", Err: err}
		}
		return nil, &AuthError{Status: http.StatusInternalServerError, Code: "SERVER_ERROR", Message: "Could not verify session", Err: err}
	}

	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, &AuthError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Account no longer exists", Err: err}
		}
		return nil, &AuthError{Status: http.StatusInternalServerError, Code: "SERVER_ERROR", Message: "Could not load profile", Err: err}
	}

	role := rbac.Normalize(string(profile.Role))
	if len(roles) > 0 && !hasRole(roles, role) {
		return nil, &AuthError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "You do not have access to this resource"}
	}
	return &UserContext{
		UserID:       userID,
		SessionID:    sessionID,
		Profile:      profile,
		Role:         role,
		Capabilities: rbac.For(role),
		IP:           clientip.FromRequest(r, a.trustProxy),
	}, nil
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require rejects requests that fail Authorize and stores the UserContext otherwise.
func (a *Authorizer) Require(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, authErr := a.Authorize(r, roles...)
			if authErr != nil {
				if authErr.Status >= http.StatusInternalServerError {
					a.log.Errorw("authorization failed", "path", r.URL.Path, "error", authErr.Err)
				}
				httpx.WriteError(w, authErr.Status, authErr.Code, authErr.Message, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// UserFromContext returns the caller stored by Require.
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	u, ok := ctx.Value(userContextKey{}).(*UserContext)
	return u, ok
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}
