package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key prefixes. Both are scoped to one console session and one tour.
const (
	draftKeyPrefix = "itinerary:draft:"
	lockKeyPrefix  = "itinerary:lock:"
)

// lockCalls is the most sequential backend calls one mutating request
// makes (tour, activities, companies, the write, the refresh) plus one
// for slack. The lock must outlive all of them.
const lockCalls = 6

// LockTTL returns how long a session's in-flight lock lives when every
// backend call may take up to backendTimeout. A client without a timeout
// still gets a lock that expires.
func LockTTL(backendTimeout time.Duration) time.Duration {
	if backendTimeout <= 0 {
		backendTimeout = defaultBackendTimeout
	}
	return lockCalls * backendTimeout
}

const defaultBackendTimeout = 15 * time.Second

// releaseScript deletes the lock only if it still holds our token, so a
// request that outlived its lock never frees someone else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DraftStore keeps each session's controller snapshot between requests and
// serializes the requests that mutate it.
type DraftStore interface {
	Load(ctx context.Context, sessionID string, tourID int64) (Snapshot, error)
	Save(ctx context.Context, sessionID string, tourID int64, snap Snapshot) error

	// Lock claims the session's in-flight slot for tourID. It fails with
	// ErrSubmitInFlight while another request holds it. The returned
	// function releases the lock and is safe to call more than once.
	Lock(ctx context.Context, sessionID string, tourID int64) (release func(), err error)
}

// redisDraftStore implements DraftStore on Redis with a sliding TTL.
type redisDraftStore struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewDraftStore creates a Redis-backed draft store. Snapshots expire after
// ttl without activity; an in-flight lock left by a crashed request
// expires after lockTTL.
func NewDraftStore(rdb *redis.Client, ttl, lockTTL time.Duration) DraftStore {
	return &redisDraftStore{redis: rdb, ttl: ttl, lockTTL: lockTTL}
}

func scopedKey(prefix, sessionID string, tourID int64) string {
	return prefix + sessionID + ":" + strconv.FormatInt(tourID, 10)
}

// Load returns the stored snapshot, or an idle one if none exists.
func (s *redisDraftStore) Load(ctx context.Context, sessionID string, tourID int64) (Snapshot, error) {
	data, err := s.redis.Get(ctx, scopedKey(draftKeyPrefix, sessionID, tourID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{State: Idle}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading draft from Redis: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshaling draft: %w", err)
	}
	return snap, nil
}

// Save stores the snapshot. An idle session has nothing worth keeping, so
// its key is removed instead.
func (s *redisDraftStore) Save(ctx context.Context, sessionID string, tourID int64, snap Snapshot) error {
	key := scopedKey(draftKeyPrefix, sessionID, tourID)

	if snap.State == Idle && snap.Draft == nil {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("deleting draft from Redis: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling draft: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing draft in Redis: %w", err)
	}
	return nil
}

// Lock implements DraftStore with SET NX and a random owner token.
func (s *redisDraftStore) Lock(ctx context.Context, sessionID string, tourID int64) (func(), error) {
	key := scopedKey(lockKeyPrefix, sessionID, tourID)
	token := uuid.NewString()

	ok, err := s.redis.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring itinerary lock: %w", err)
	}
	if !ok {
		return nil, ErrSubmitInFlight
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release even if the request context was cancelled.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, s.redis, []string{key}, token).Err()
	}, nil
}
