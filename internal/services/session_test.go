package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSessionStoreLifecycle(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()
	userID := uuid.New()

	first, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, ok, err := store.Validate(ctx, first)
	if err != nil || !ok || got != userID {
		t.Fatalf("Validate(first) = %v, %v, %v", got, ok, err)
	}

	second, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if _, ok, _ := store.Validate(ctx, first); ok {
		t.Fatal("signing in again should revoke the previous session")
	}
	if _, ok, _ := store.Validate(ctx, second); !ok {
		t.Fatal("new session should be valid")
	}

	if err := store.Revoke(ctx, second); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Revoke(ctx, second); err != nil {
		t.Fatalf("second Revoke should be a no-op: %v", err)
	}
	if _, ok, _ := store.Validate(ctx, second); ok {
		t.Fatal("revoked session should be invalid")
	}
	if mr.Exists(UserSessionKeyPrefix + userID.String()) {
		t.Fatal("user mapping should be removed on revoke")
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(time.Hour + time.Second)
	if _, ok, err := store.Validate(ctx, id); ok || err != nil {
		t.Fatalf("expired session: ok=%v err=%v", ok, err)
	}
}

func TestRedisSessionStoreCorruptValue(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client, 0)
	if store.TTL() != DefaultSessionTTL {
		t.Fatalf("TTL = %v", store.TTL())
	}
	mr.Set(SessionKeyPrefix+"abc", "not-a-uuid")
	if _, _, err := store.Validate(context.Background(), "abc"); err == nil {
		t.Fatal("expected error for corrupt session value")
	}
}
