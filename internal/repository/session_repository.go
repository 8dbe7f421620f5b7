package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// SessionStore keeps validated launch tokens behind opaque ltik session
// identifiers. Tokens are request-scoped on the LTI side; the store only
// bridges the redirect hop between launch and the SPA's API calls.
type SessionStore interface {
	// Save persists the token and returns the minted ltik.
	Save(ctx context.Context, token *models.LaunchToken, ttl time.Duration) (string, error)
	// Find resolves an ltik back to its token. A missing or expired session
	// yields ErrUnauthorized.
	Find(ctx context.Context, ltik string) (*models.LaunchToken, error)
}

const sessionKeyPrefix = "ltik:"

// RedisSessionStore is the production SessionStore.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps a Redis client as a SessionStore.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, token *models.LaunchToken, ttl time.Duration) (string, error) {
	ltik := uuid.NewString()
	token.SessionID = ltik

	payload, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("encode launch session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+ltik, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("store launch session: %w", err)
	}
	return ltik, nil
}

func (s *RedisSessionStore) Find(ctx context.Context, ltik string) (*models.LaunchToken, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+ltik).Bytes()
	if err == redis.Nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown or expired session")
	}
	if err != nil {
		return nil, fmt.Errorf("load launch session: %w", err)
	}

	var token models.LaunchToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("decode launch session: %w", err)
	}
	return &token, nil
}

// MemorySessionStore is an in-process SessionStore used in tests and
// single-node development setups.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	token     models.LaunchToken
	expiresAt time.Time
}

// NewMemorySessionStore builds an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Save(_ context.Context, token *models.LaunchToken, ttl time.Duration) (string, error) {
	ltik := uuid.NewString()
	token.SessionID = ltik

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ltik] = memorySession{token: *token, expiresAt: time.Now().Add(ttl)}
	return ltik, nil
}

func (s *MemorySessionStore) Find(_ context.Context, ltik string) (*models.LaunchToken, error) {
	s.mu.RLock()
	session, ok := s.sessions[ltik]
	s.mu.RUnlock()

	if !ok || time.Now().After(session.expiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown or expired session")
	}
	token := session.token
	return &token, nil
}
