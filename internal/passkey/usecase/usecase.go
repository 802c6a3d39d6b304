package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"time"

	"github.com/phulin/oy2-sub000/config"
	"github.com/phulin/oy2-sub000/internal/passkey"
	models "github.com/phulin/oy2-sub000/internal/passkey/model"
	"github.com/phulin/oy2-sub000/internal/passkey/repository"
	"github.com/phulin/oy2-sub000/internal/passkey/webauthn"
	"github.com/phulin/oy2-sub000/pkg/errors"
	"github.com/phulin/oy2-sub000/pkg/logger"

	"github.com/google/uuid"
)

const (
	credentialTypePublicKey = "public-key"
	algES256                = -7
)

var defaultTransports = []string{"internal"}

type PasskeyUsecase struct {
	creds      passkey.CredentialRepository
	challenges passkey.ChallengeStore
	logger     logger.Logger
	config     config.Config

	now       func() time.Time
	newAuthID func() uuid.UUID
}

type Option func(*PasskeyUsecase)

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(uc *PasskeyUsecase) { uc.now = now }
}

// WithAuthIDSource injects the ceremony-id generator, for deterministic tests.
func WithAuthIDSource(gen func() uuid.UUID) Option {
	return func(uc *PasskeyUsecase) { uc.newAuthID = gen }
}

func NewPasskeyUsecase(creds passkey.CredentialRepository, challenges passkey.ChallengeStore, logger logger.Logger, config config.Config, opts ...Option) *PasskeyUsecase {
	uc := &PasskeyUsecase{
		creds:      creds,
		challenges: challenges,
		logger:     logger,
		config:     config,
		now:        time.Now,
		newAuthID:  uuid.New,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *PasskeyUsecase) BeginRegistration(ctx context.Context, subject passkey.Subject, origin string) (*passkey.RegistrationOptionsDTO, error) {
	rpID, err := webauthn.RPIDFromOrigin(origin)
	if err != nil {
		return nil, err
	}

	// Key the registration challenge by subject: only one registration
	// ceremony per subject is in flight, a new one replaces it.
	challenge, err := uc.challenges.Issue(ctx, models.PurposeRegister, subject.ID.String())
	if err != nil {
		uc.logger.Error("failed to issue registration challenge", "err", err)
		return nil, errors.Internal("failed to create challenge")
	}

	existing, err := uc.creds.ListBySubject(ctx, subject.ID)
	if err != nil {
		uc.logger.Error("database error listing credentials", "err", err)
		return nil, errors.Internal("internal server error")
	}
	exclude := make([]passkey.CredentialDescriptorDTO, 0, len(existing))
	for _, c := range existing {
		exclude = append(exclude, passkey.CredentialDescriptorDTO{
			Type: credentialTypePublicKey,
			ID:   passkey.EncodeB64(c.CredentialID),
		})
	}

	return &passkey.RegistrationOptionsDTO{
		Challenge: passkey.EncodeB64(challenge),
		RP: passkey.RelyingPartyDTO{
			Name: uc.config.WebAuthn.RPDisplayName,
			ID:   rpID,
		},
		User: passkey.UserEntityDTO{
			ID:          passkey.EncodeB64(subject.ID[:]),
			Name:        subject.Name,
			DisplayName: subject.DisplayName,
		},
		PubKeyCredParams: []passkey.PubKeyCredParamDTO{
			{Type: credentialTypePublicKey, Alg: algES256},
		},
		Timeout:     uc.config.WebAuthn.CeremonyTimeoutOrDefault().Milliseconds(),
		Attestation: "none",
		AuthenticatorSelection: passkey.AuthenticatorSelectionDTO{
			ResidentKey:      "required",
			UserVerification: uc.config.WebAuthn.UserVerificationOrDefault(),
		},
		ExcludeCredentials: exclude,
	}, nil
}

func (uc *PasskeyUsecase) FinishRegistration(ctx context.Context, subject passkey.Subject, origin string, cmd passkey.FinishRegistrationCommand) error {
	challenge, err := uc.challenges.Consume(ctx, models.PurposeRegister, subject.ID.String())
	if err != nil {
		return err
	}

	if cmd.Credential.Type != credentialTypePublicKey {
		return errors.ErrInvalidCredential
	}

	clientDataJSON, err := passkey.DecodeB64(cmd.Credential.Response.ClientDataJSON)
	if err != nil {
		return errors.InvalidArg("invalid client data encoding")
	}
	clientData, err := webauthn.ParseClientData(clientDataJSON)
	if err != nil {
		return err
	}
	if !clientData.ChallengeEqual(challenge) {
		return errors.ErrChallengeMismatch
	}
	if clientData.Origin != origin {
		return errors.ErrOriginMismatch
	}
	if clientData.Type != webauthn.ClientDataTypeCreate {
		return errors.ErrInvalidCeremony
	}

	attRaw, err := passkey.DecodeB64(cmd.Credential.Response.AttestationObject)
	if err != nil {
		return errors.ErrMalformedAuthData
	}
	attObj, err := webauthn.ParseAttestationObject(attRaw)
	if err != nil {
		return err
	}
	authData := attObj.AuthData

	rpID, err := webauthn.RPIDFromOrigin(origin)
	if err != nil {
		return err
	}
	rpIDHash := sha256.Sum256([]byte(rpID))
	if !bytes.Equal(authData.RPIDHash, rpIDHash[:]) {
		return errors.ErrRpIDMismatch
	}
	if !authData.UserPresent() {
		return errors.ErrUserPresence
	}
	if authData.Attested == nil {
		return errors.ErrMissingCredData
	}

	exists, err := uc.creds.CredentialIDExists(ctx, authData.Attested.CredentialID)
	if err != nil {
		uc.logger.Error("database error checking credential id", "err", err)
		return errors.Internal("internal server error")
	}
	if exists {
		return errors.ErrCredentialExists
	}

	transports := cmd.Credential.Response.Transports
	if len(transports) == 0 {
		transports = defaultTransports
	}

	cred := &models.Credential{
		SubjectID:    subject.ID,
		CredentialID: authData.Attested.CredentialID,
		PublicKey:    authData.Attested.PublicKey,
		SignCount:    authData.SignCount,
		Transports:   transports,
		DeviceLabel:  cmd.DeviceName,
	}
	if err := uc.creds.Create(ctx, cred); err != nil {
		uc.logger.Errorf("error while saving credential in db: %v", err)
		return errors.ErrRegistrationFailed(errors.Internal("database error"))
	}
	return nil
}

func (uc *PasskeyUsecase) BeginAuthentication(ctx context.Context, origin string) (*passkey.AuthenticationOptionsDTO, error) {
	rpID, err := webauthn.RPIDFromOrigin(origin)
	if err != nil {
		return nil, err
	}

	// A random ceremony id keys the challenge so we never need to know who
	// is logging in; discoverable credentials pick the account client-side.
	authID := uc.newAuthID()
	challenge, err := uc.challenges.Issue(ctx, models.PurposeAuthenticate, authID.String())
	if err != nil {
		uc.logger.Error("failed to issue authentication challenge", "err", err)
		return nil, errors.Internal("failed to create challenge")
	}

	return &passkey.AuthenticationOptionsDTO{
		AuthID:           authID.String(),
		Challenge:        passkey.EncodeB64(challenge),
		RPID:             rpID,
		Timeout:          uc.config.WebAuthn.CeremonyTimeoutOrDefault().Milliseconds(),
		UserVerification: uc.config.WebAuthn.UserVerificationOrDefault(),
		AllowCredentials: []passkey.CredentialDescriptorDTO{},
	}, nil
}

func (uc *PasskeyUsecase) FinishAuthentication(ctx context.Context, origin string, cmd passkey.FinishAuthenticationCommand) (*passkey.AuthenticatedSubjectDTO, error) {
	challenge, err := uc.challenges.Consume(ctx, models.PurposeAuthenticate, cmd.AuthID)
	if err != nil {
		return nil, err
	}

	if cmd.Credential.Type != credentialTypePublicKey {
		return nil, errors.ErrInvalidCredential
	}

	credentialID, err := passkey.DecodeB64(cmd.Credential.RawID)
	if err != nil || len(credentialID) == 0 {
		return nil, errors.InvalidArg("invalid credential id encoding")
	}
	cred, err := uc.creds.GetByCredentialID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, errors.ErrUnknownCredential
		}
		uc.logger.Error("database error loading credential", "err", err)
		return nil, errors.Internal("internal server error")
	}

	clientDataJSON, err := passkey.DecodeB64(cmd.Credential.Response.ClientDataJSON)
	if err != nil {
		return nil, errors.InvalidArg("invalid client data encoding")
	}
	clientData, err := webauthn.ParseClientData(clientDataJSON)
	if err != nil {
		return nil, err
	}
	if !clientData.ChallengeEqual(challenge) {
		return nil, errors.ErrChallengeMismatch
	}
	if clientData.Origin != origin {
		return nil, errors.ErrOriginMismatch
	}
	if clientData.Type != webauthn.ClientDataTypeGet {
		return nil, errors.ErrInvalidCeremony
	}

	authDataRaw, err := passkey.DecodeB64(cmd.Credential.Response.AuthenticatorData)
	if err != nil {
		return nil, errors.ErrMalformedAuthData
	}
	authData, err := webauthn.ParseAuthenticatorData(authDataRaw)
	if err != nil {
		return nil, err
	}

	rpID, err := webauthn.RPIDFromOrigin(origin)
	if err != nil {
		return nil, err
	}
	rpIDHash := sha256.Sum256([]byte(rpID))
	if !bytes.Equal(authData.RPIDHash, rpIDHash[:]) {
		return nil, errors.ErrRpIDMismatch
	}
	if !authData.UserPresent() {
		return nil, errors.ErrUserPresence
	}

	sig, err := passkey.DecodeB64(cmd.Credential.Response.Signature)
	if err != nil {
		return nil, errors.ErrInvalidSigEncoding
	}

	// The authenticator signs authenticatorData ‖ SHA-256(clientDataJSON).
	clientDataHash := sha256.Sum256(clientDataJSON)
	signedMessage := make([]byte, 0, len(authDataRaw)+len(clientDataHash))
	signedMessage = append(signedMessage, authDataRaw...)
	signedMessage = append(signedMessage, clientDataHash[:]...)

	ok, err := webauthn.VerifyES256(cred.PublicKey, sig, signedMessage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrInvalidSignature
	}

	// A counter at or below a nonzero stored value means this assertion was
	// produced by a copy of the key. Stored zero is exempt: plenty of
	// authenticators never increment at all.
	if authData.SignCount <= cred.SignCount && cred.SignCount > 0 {
		uc.logger.Warn("possible cloned authenticator detected",
			"credential_id", passkey.EncodeB64(cred.CredentialID),
			"stored_count", cred.SignCount,
			"asserted_count", authData.SignCount)
		return nil, errors.ErrClonedCredential
	}

	moved, err := uc.creds.UpdateSignCount(ctx, cred.ID, authData.SignCount)
	if err != nil {
		uc.logger.Error("database error updating sign count", "err", err)
		return nil, errors.Internal("internal server error")
	}
	if !moved {
		// Lost the conditional update to a concurrent assertion.
		uc.logger.Warn("possible cloned authenticator detected",
			"credential_id", passkey.EncodeB64(cred.CredentialID),
			"stored_count", cred.SignCount,
			"asserted_count", authData.SignCount)
		return nil, errors.ErrClonedCredential
	}

	go func(id uuid.UUID, at time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.creds.TouchLastUsed(ctx, id, at); err != nil {
			uc.logger.Error("failed to update last used timestamp", "err", err)
		}
	}(cred.ID, uc.now())

	return &passkey.AuthenticatedSubjectDTO{
		SubjectID:    cred.SubjectID,
		CredentialID: passkey.EncodeB64(cred.CredentialID),
	}, nil
}

func (uc *PasskeyUsecase) ListCredentials(ctx context.Context, subjectID uuid.UUID) ([]passkey.CredentialDTO, error) {
	creds, err := uc.creds.ListBySubject(ctx, subjectID)
	if err != nil {
		uc.logger.Error("database error listing credentials", "err", err)
		return nil, errors.Internal("internal server error")
	}

	out := make([]passkey.CredentialDTO, 0, len(creds))
	for _, c := range creds {
		out = append(out, passkey.CredentialDTO{
			ID:           c.ID,
			CredentialID: passkey.EncodeB64(c.CredentialID),
			DeviceLabel:  c.DeviceLabel,
			Transports:   c.Transports,
			SignCount:    c.SignCount,
			CreatedAt:    c.CreatedAt,
			LastUsedAt:   c.LastUsedAt,
		})
	}
	return out, nil
}

func (uc *PasskeyUsecase) RenameCredential(ctx context.Context, subjectID, credentialID uuid.UUID, label string) error {
	if label == "" {
		return errors.InvalidArg("device label cannot be empty")
	}
	err := uc.creds.UpdateDeviceLabel(ctx, subjectID, credentialID, label)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.ErrUnknownCredential
		}
		uc.logger.Error("database error renaming credential", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

func (uc *PasskeyUsecase) RemoveCredential(ctx context.Context, subjectID, credentialID uuid.UUID) error {
	err := uc.creds.DeleteBySubject(ctx, subjectID, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.ErrUnknownCredential
		}
		uc.logger.Error("database error removing credential", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}
