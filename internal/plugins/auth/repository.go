package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// errSessionNotFound is returned when no session is stored under an id.
var errSessionNotFound = errors.New("session not found")

// SessionRepository defines the storage contract for console sessions.
// All Redis access lives in the concrete implementation.
type SessionRepository interface {
	Create(ctx context.Context, s *Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// sessionRepository implements SessionRepository with JSON values in Redis.
type sessionRepository struct {
	redis *redis.Client
}

// NewSessionRepository creates a session repository on the given client.
func NewSessionRepository(rdb *redis.Client) SessionRepository {
	return &sessionRepository{redis: rdb}
}

// Create stores the session under its id with the given TTL.
func (r *sessionRepository) Create(ctx context.Context, s *Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := r.redis.Set(ctx, sessionKeyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("storing session in Redis: %w", err)
	}
	return nil
}

// Find loads a session. Returns errSessionNotFound when it is missing or
// has expired.
func (r *sessionRepository) Find(ctx context.Context, id string) (*Session, error) {
	data, err := r.redis.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session from Redis: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	s.ID = id
	return &s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session from Redis: %w", err)
	}
	return nil
}
