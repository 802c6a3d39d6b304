package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"io"
	"time"

	models "github.com/phulin/oy2-sub000/internal/passkey/model"
	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
	"github.com/phulin/oy2-sub000/pkg/logger"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const challengeSize = 32

// ChallengeStore is the durable challenge store. Challenges must be visible
// from any serving instance, so they live in Postgres: Issue upserts, Consume
// deletes-and-returns in one statement. Losing a consume race just looks like
// an expired challenge, which is the safe direction.
type ChallengeStore struct {
	db     *bun.DB
	logger *logger.Logger

	ttl  time.Duration
	rand io.Reader
	now  func() time.Time
}

type ChallengeStoreOption func(*ChallengeStore)

func WithRand(r io.Reader) ChallengeStoreOption {
	return func(s *ChallengeStore) { s.rand = r }
}

func WithClock(now func() time.Time) ChallengeStoreOption {
	return func(s *ChallengeStore) { s.now = now }
}

func NewChallengeStore(db *bun.DB, logger *logger.Logger, ttl time.Duration, opts ...ChallengeStoreOption) *ChallengeStore {
	s := &ChallengeStore{
		db:     db,
		logger: logger,
		ttl:    ttl,
		rand:   rand.Reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChallengeStore) Issue(ctx context.Context, purpose, key string) ([]byte, error) {

	value := make([]byte, challengeSize)
	if _, err := io.ReadFull(s.rand, value); err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, "failed to generate challenge", err)
	}

	c := &models.Challenge{
		Purpose:   purpose,
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().Add(s.ttl),
	}
	// A re-issued registration challenge replaces the unconsumed one.
	_, err := s.db.NewInsert().
		Model(c).
		On("CONFLICT (purpose, key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "challengeStore.Issue.Insert: ")
	}
	return value, nil
}

func (s *ChallengeStore) Consume(ctx context.Context, purpose, key string) ([]byte, error) {

	var value []byte
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM challenges WHERE purpose = ? AND key = ? AND expires_at > ? RETURNING value",
		purpose, key, s.now(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrChallengeExpired
	}
	if err != nil {
		return nil, errors.Wrap(err, "challengeStore.Consume.Delete: ")
	}
	return value, nil
}

// CleanupExpired removes entries past their TTL; run it periodically, the
// consume path already refuses expired rows.
func (s *ChallengeStore) CleanupExpired(ctx context.Context) error {

	_, err := s.db.NewDelete().
		Model((*models.Challenge)(nil)).
		Where("expires_at < ?", s.now()).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "challengeStore.CleanupExpired.Delete: ")
	}
	return nil
}
