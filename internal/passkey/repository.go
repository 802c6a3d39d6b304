package passkey

import (
	"context"
	"time"

	"github.com/google/uuid"
	models "github.com/phulin/oy2-sub000/internal/passkey/model"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *models.Credential) error
	GetByCredentialID(ctx context.Context, credentialID []byte) (*models.Credential, error)
	CredentialIDExists(ctx context.Context, credentialID []byte) (bool, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Credential, error)

	// UpdateSignCount conditionally moves the stored counter to newCount.
	// The condition (stored counter below newCount, or zero for
	// authenticators that never increment) is evaluated in the store as a
	// single conditional update, so two racing assertions cannot both pass.
	// Returns false when the condition did not hold.
	UpdateSignCount(ctx context.Context, id uuid.UUID, newCount uint32) (bool, error)

	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateDeviceLabel(ctx context.Context, subjectID, id uuid.UUID, label string) error
	DeleteBySubject(ctx context.Context, subjectID, id uuid.UUID) error
}

// ChallengeStore issues and consumes single-use ceremony challenges. Issue
// overwrites any unconsumed challenge under the same key; Consume removes the
// entry so a replayed ceremony result fails. Both the expired and the
// already-consumed case surface as ErrChallengeExpired.
type ChallengeStore interface {
	Issue(ctx context.Context, purpose, key string) ([]byte, error)
	Consume(ctx context.Context, purpose, key string) ([]byte, error)
}
