package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/rbac"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeResolver struct {
	tokens map[string]uuid.UUID
	err    error
}

func (f fakeResolver) Resolve(_ context.Context, token string) (uuid.UUID, string, error) {
	if f.err != nil {
		return uuid.Nil, "", f.err
	}
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, "", services.ErrUnauthenticated
	}
	return id, "sess-" + token, nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]models.Profile
	err      error
}

func (f fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (models.Profile, error) {
	if f.err != nil {
		return models.Profile{}, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return models.Profile{}, services.ErrNotFound
	}
	return p, nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

func TestRequire(t *testing.T) {
	userID, adminID, goneID := uuid.New(), uuid.New(), uuid.New()
	resolver := fakeResolver{tokens: map[string]uuid.UUID{"user": userID, "admin": adminID, "gone": goneID}}
	profiles := fakeProfiles{profiles: map[uuid.UUID]models.Profile{
		userID:  {ID: userID, DisplayName: "Sam", Role: models.RoleUser},
		adminID: {ID: adminID, DisplayName: "Ada", Role: models.RoleAdmin},
	}}

	cases := []struct {
		name     string
		resolver TokenResolver
		profiles ProfileGetter
		token    string
		roles    []models.Role
		status   int
		code     string
	}{
		{name: "missing token", resolver: resolver, profiles: profiles, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "unknown token", resolver: resolver, profiles: profiles, token: "nope", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "profile deleted", resolver: resolver, profiles: profiles, token: "gone", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "session store down", resolver: fakeResolver{err: errors.New("redis down")}, profiles: profiles, token: "user", status: http.StatusInternalServerError, code: "SERVER_ERROR"},
		{name: "profile store down", resolver: resolver, profiles: fakeProfiles{err: errors.New("pg down")}, token: "user", status: http.StatusInternalServerError, code: "SERVER_ERROR"},
		{name: "wrong role", resolver: resolver, profiles: profiles, token: "user", roles: []models.Role{models.RoleAdmin}, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "any role", resolver: resolver, profiles: profiles, token: "user", status: http.StatusOK},
		{name: "admin", resolver: resolver, profiles: profiles, token: "admin", roles: []models.Role{models.RoleAdmin}, status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := NewAuthorizer(tc.resolver, tc.profiles, "solace_session", false, zap.NewNop().Sugar())
			var seen *UserContext
			h := auth.Require(tc.roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status != http.StatusOK {
				if got := errorCode(t, rec); got != tc.code {
					t.Fatalf("code = %q, want %q", got, tc.code)
				}
				if seen != nil {
					t.Fatal("handler ran for a rejected request")
				}
				return
			}
			if seen == nil {
				t.Fatal("UserContext missing from request context")
			}
			if seen.Capabilities.Has(rbac.ModerateForum) != (seen.Role == models.RoleAdmin) {
				t.Fatalf("capabilities do not match role %s", seen.Role)
			}
		})
	}
}

func TestToken(t *testing.T) {
	auth := NewAuthorizer(fakeResolver{}, fakeProfiles{}, "solace_session", false, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "solace_session", Value: "cookie-token"})
	if got := auth.Token(req); got != "header-token" {
		t.Fatalf("bearer should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "solace_session", Value: "cookie-token"})
	if got := auth.Token(req); got != "cookie-token" {
		t.Fatalf("cookie token = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me?token=query-token", nil)
	if got := auth.Token(req); got != "" {
		t.Fatalf("query token must be ignored outside upgrades, got %q", got)
	}
	req.Header.Set("Upgrade", "websocket")
	if got := auth.Token(req); got != "query-token" {
		t.Fatalf("upgrade query token = %q", got)
	}
}

func TestRoleNormalizedForUnknownValues(t *testing.T) {
	id := uuid.New()
	auth := NewAuthorizer(
		fakeResolver{tokens: map[string]uuid.UUID{"t": id}},
		fakeProfiles{profiles: map[uuid.UUID]models.Profile{id: {ID: id, Role: models.Role("superuser")}}},
		"solace_session", false, zap.NewNop().Sugar(),
	)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	user, authErr := auth.Authorize(req)
	if authErr != nil {
		t.Fatalf("Authorize: %v", authErr)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("role = %s, want user", user.Role)
	}
	if _, authErr := auth.Authorize(req, models.RoleAdmin); authErr == nil || authErr.Status != http.StatusForbidden {
		t.Fatalf("unknown role must not pass an admin check, got %v", authErr)
	}
}
