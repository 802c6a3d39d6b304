package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is one registered authenticator. CredentialID comes from the
// authenticator at registration and is unique across all subjects; the same
// authenticator can never be registered twice, for anyone.
type Credential struct {
	ID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`

	// SubjectID references the owning account; accounts live outside this
	// service.
	SubjectID uuid.UUID `bun:",notnull,type:uuid"`

	CredentialID []byte `bun:",unique,notnull"`

	// PublicKey is the raw 65-byte uncompressed P-256 point (0x04 ‖ X ‖ Y),
	// derived once from the COSE key at registration.
	PublicKey []byte `bun:",notnull"`

	// SignCount only ever grows; a regression on a nonzero value marks a
	// possibly cloned authenticator.
	SignCount uint32 `bun:",notnull,default:0"`

	// Transports are informational hints ("internal", "usb", ...).
	Transports []string `bun:",array"`

	DeviceLabel string `bun:",nullzero"`

	CreatedAt  time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
	LastUsedAt *time.Time `bun:",nullzero"`
}
