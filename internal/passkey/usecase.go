package passkey

import (
	"context"

	"github.com/google/uuid"
)

// PasskeyUsecase runs the two WebAuthn ceremonies. Every method takes the
// request's effective origin so the relying-party id always matches the
// hostname the client actually spoke to.
type PasskeyUsecase interface {
	// BeginRegistration issues a challenge for the subject and returns the
	// credential-creation options, with the subject's existing credentials
	// as an exclusion list.
	BeginRegistration(ctx context.Context, subject Subject, origin string) (*RegistrationOptionsDTO, error)

	// FinishRegistration validates the attestation response and persists the
	// new credential. No session is issued here.
	FinishRegistration(ctx context.Context, subject Subject, origin string, cmd FinishRegistrationCommand) error

	// BeginAuthentication issues a challenge under a fresh random ceremony
	// id. The allow-list is always empty, so discoverable credentials can
	// log in with no account hint.
	BeginAuthentication(ctx context.Context, origin string) (*AuthenticationOptionsDTO, error)

	// FinishAuthentication validates the assertion, enforces the signature
	// counter, and returns the owning subject for session issuance.
	FinishAuthentication(ctx context.Context, origin string, cmd FinishAuthenticationCommand) (*AuthenticatedSubjectDTO, error)

	// Credential management for the account settings surface.
	ListCredentials(ctx context.Context, subjectID uuid.UUID) ([]CredentialDTO, error)
	RenameCredential(ctx context.Context, subjectID, credentialID uuid.UUID, label string) error
	RemoveCredential(ctx context.Context, subjectID, credentialID uuid.UUID) error
}
