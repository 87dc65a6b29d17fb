package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()

	token, expires, err := issuer.Issue(userID, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) > time.Hour || time.Until(expires) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expires)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != userID || claims.SessionID != "sess-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	good, _, err := issuer.Issue(uuid.New(), "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := NewTokenIssuer("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.Issue(uuid.New(), "sess-2")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   uuid.NewString(),
		ID:        "sess-3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": mustIssue(t, NewTokenIssuer("other-secret", time.Hour)),
		"expired":      old,
		"alg none":     noneAlg,
		"tampered":     good[:len(good)-2] + "xx",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Parse() err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func mustIssue(t *testing.T, issuer *TokenIssuer) string {
	t.Helper()
	token, _, err := issuer.Issue(uuid.New(), "sess")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}
