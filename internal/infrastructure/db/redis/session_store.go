package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lof/customer-profile/internal/core/domain"
)

// SessionStore keeps customer sessions in Redis.
// Key format: session:<uuid>, value: customer id.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create starts a session for customerID that expires after ttl.
func (s *SessionStore) Create(ctx context.Context, customerID string, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, s.key(id), customerID, ttl).Err(); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return id, nil
}

func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	customerID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrSessionExpired
		}
		return "", fmt.Errorf("session lookup: %w", err)
	}
	return customerID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
