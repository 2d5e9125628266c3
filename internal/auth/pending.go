package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "signup:pending:v1:"

// PendingSignup parks the data needed to finish an email signup once the
// activation link is followed. Only the bcrypt hash is stored; the plaintext
// password never leaves the signup request.
type PendingSignup struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// PendingStore holds pending signups keyed by activation token until they are
// consumed or expire.
type PendingStore interface {
	Put(ctx context.Context, token string, signup PendingSignup, ttl time.Duration) error
	Take(ctx context.Context, token string) (PendingSignup, error)
}

// NewActivationToken returns a fresh random token for an activation link.
func NewActivationToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RedisPendingStore implements PendingStore on Redis with key TTLs.
type RedisPendingStore struct {
	cache *redis.Client
}

// NewRedisPendingStore builds a Redis-backed pending-signup store.
func NewRedisPendingStore(cache *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{cache: cache}
}

// Put stores the pending signup under the token for the given TTL.
func (s *RedisPendingStore) Put(ctx context.Context, token string, signup PendingSignup, ttl time.Duration) error {
	payload, err := json.Marshal(signup)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, pendingKeyPrefix+token, payload, ttl).Err()
}

// Take fetches and deletes the pending signup in one step, so a token can be
// redeemed at most once.
func (s *RedisPendingStore) Take(ctx context.Context, token string) (PendingSignup, error) {
	val, err := s.cache.GetDel(ctx, pendingKeyPrefix+token).Result()
	if err == redis.Nil {
		return PendingSignup{}, ErrPendingNotFound
	}
	if err != nil {
		return PendingSignup{}, err
	}
	var signup PendingSignup
	if err := json.Unmarshal([]byte(val), &signup); err != nil {
		return PendingSignup{}, ErrPendingNotFound
	}
	return signup, nil
}

type pendingEntry struct {
	signup    PendingSignup
	expiresAt time.Time
}

type memoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
}

// NewMemoryPendingStore builds an in-memory pending-signup store for testing
// and local runs.
func NewMemoryPendingStore() PendingStore {
	return &memoryPendingStore{entries: make(map[string]pendingEntry)}
}

func (s *memoryPendingStore) Put(_ context.Context, token string, signup PendingSignup, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = pendingEntry{signup: signup, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryPendingStore) Take(_ context.Context, token string) (PendingSignup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return PendingSignup{}, ErrPendingNotFound
	}
	delete(s.entries, token)
	if time.Now().After(entry.expiresAt) {
		return PendingSignup{}, ErrPendingNotFound
	}
	return entry.signup, nil
}
