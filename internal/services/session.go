package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionTTL is used when the store is built with a zero TTL.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// SessionKeyPrefix maps a session id to its user id.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix maps a user id to the user's live session id.
	UserSessionKeyPrefix = "user_session:"
)

// RedisSessionStore keeps one live server-side session per user.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) TTL() time.Duration { return s.ttl }

// Create starts a new session for the user. Any previous session is revoked,
// so the TTL always counts from the latest sign-in.
func (s *RedisSessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	if err := s.RevokeUser(ctx, userID); err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	sessionID := base64.RawURLEncoding.EncodeToString(raw)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+sessionID, userID.String(), s.ttl)
	pipe.Set(ctx, UserSessionKeyPrefix+userID.String(), sessionID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, nil
}

// Validate returns the user owning a live session. A missing or expired
// session is reported as ok=false with a nil error.
func (s *RedisSessionStore) Validate(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	if sessionID == "" {
		return uuid.Nil, false, nil
	}
	raw, err := s.client.Get(ctx, SessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("load session: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return userID, true, nil
}

// Revoke deletes one session. Revoking an unknown session is not an error.
func (s *RedisSessionStore) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	key := SessionKeyPrefix + sessionID
	userID, err := s.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load session: %w", err)
	}

	keys := []string{key}
	if userID != "" {
		// Only drop the user mapping if it still points at this session.
		current, err := s.client.Get(ctx, UserSessionKeyPrefix+userID).Result()
		if err == nil && current == sessionID {
			keys = append(keys, UserSessionKeyPrefix+userID)
		}
	}
	return s.client.Del(ctx, keys...).Err()
}

// RevokeUser drops the user's live session, if any.
func (s *RedisSessionStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	userKey := UserSessionKeyPrefix + userID.String()
	sessionID, err := s.client.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load user session: %w", err)
	}
	keys := []string{userKey}
	if sessionID != "" {
		keys = append(keys, SessionKeyPrefix+sessionID)
	}
	return s.client.Del(ctx, keys...).Err()
}
