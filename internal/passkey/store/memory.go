package store

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

const challengeSize = 32

// MemoryChallengeStore keeps challenges in process memory. Good for a single
// instance and for tests; multi-instance deployments use the bun-backed store
// so any replica can consume a challenge issued by another.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]entry

	ttl  time.Duration
	rand io.Reader
	now  func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

type MemoryOption func(*MemoryChallengeStore)

// WithRand injects the randomness source, for deterministic tests.
func WithRand(r io.Reader) MemoryOption {
	return func(s *MemoryChallengeStore) { s.rand = r }
}

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryChallengeStore) { s.now = now }
}

func NewMemoryChallengeStore(ttl time.Duration, opts ...MemoryOption) *MemoryChallengeStore {
	s := &MemoryChallengeStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		rand:    rand.Reader,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a fresh random challenge and stores it under (purpose, key),
// replacing any unconsumed challenge for that key.
func (s *MemoryChallengeStore) Issue(ctx context.Context, purpose, key string) ([]byte, error) {
	value := make([]byte, challengeSize)
	if _, err := io.ReadFull(s.rand, value); err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, "failed to generate challenge", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey(purpose, key)] = entry{
		value:     value,
		expiresAt: s.now().Add(s.ttl),
	}
	return value, nil
}

// Consume atomically reads and deletes the challenge. Missing, already
// consumed and expired all look the same to the caller.
func (s *MemoryChallengeStore) Consume(ctx context.Context, purpose, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := storeKey(purpose, key)
	e, ok := s.entries[k]
	if !ok {
		return nil, appErrors.ErrChallengeExpired
	}
	delete(s.entries, k)
	if s.now().After(e.expiresAt) {
		return nil, appErrors.ErrChallengeExpired
	}
	return e.value, nil
}

func storeKey(purpose, key string) string {
	return purpose + "\x00" + key
}
