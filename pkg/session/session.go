// Package session resolves the authenticated user of a request from a redis-backed session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unyte/adconnect/pkg/models"
)

const (
	// CookieName is the cookie carrying the session ID.
	CookieName = "adconnect_session"

	// HeaderName carries the session ID for non-browser clients.
	HeaderName = "X-Session-Token"

	keyPrefix = "session:"
)

// ErrSessionNotFound is returned when the session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)

	return user, ok && user != nil && user.ID != ""
}

// Store resolves session IDs to users.
type Store interface {
	Lookup(ctx context.Context, sessionID string) (*models.User, error)
}

// RedisStore keeps sessions as JSON documents under session:<id> with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores a new session for user and returns its ID.
func (s *RedisStore) Create(ctx context.Context, user *models.User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session user: %w", err)
	}

	sessionID := uuid.NewString()

	err = s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sessionID, nil
}

// Lookup returns the session's user and extends its TTL.
func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (*models.User, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.User

	err = json.Unmarshal(data, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session user: %w", err)
	}

	if s.ttl > 0 {
		err = s.client.Expire(ctx, keyPrefix+sessionID, s.ttl).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
	}

	return &user, nil
}

// Delete ends a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	err := s.client.Del(ctx, keyPrefix+sessionID).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
