package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValidationSessionStore holds the transient "reference number validated"
// marker between credential validation and code issuance. The marker is
// session-scoped, not part of the credential record, and TakeValidated is
// read-and-clear so it can gate at most one issuance.
type ValidationSessionStore interface {
	SetValidated(ctx context.Context, userID string) error
	TakeValidated(ctx context.Context, userID string) (bool, error)
}

type memoryValidationSessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
}

func NewMemoryValidationSessionStore(ttl time.Duration) ValidationSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryValidationSessionStore{
		ttl:   ttl,
		items: make(map[string]time.Time),
	}
}

func (s *memoryValidationSessionStore) SetValidated(_ context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = time.Now().UTC().Add(s.ttl)
	return nil
}

func (s *memoryValidationSessionStore) TakeValidated(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[userID]
	if !ok {
		return false, nil
	}
	delete(s.items, userID)
	if time.Now().UTC().After(exp) {
		return false, nil
	}
	return true, nil
}

type redisValidationSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisValidationSessionStore backs the marker with redis so it
// survives process restarts and is shared across stateless workers.
func NewRedisValidationSessionStore(client *redis.Client, ttl time.Duration) ValidationSessionStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisValidationSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "verify:prevalidated:",
	}
}

func (s *redisValidationSessionStore) SetValidated(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+userID, "1", s.ttl).Err()
}

func (s *redisValidationSessionStore) TakeValidated(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, err := s.client.GetDel(ctx, s.prefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
