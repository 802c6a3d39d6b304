package errors

// Ceremony errors — every way a registration or authentication attempt can be
// rejected. Each carries a stable kind echoed to the client; a failed step is
// never retried server-side, the client restarts from the options endpoint.
var (
	ErrChallengeExpired   = NewKind(CodeFailedPrecondition, "ChallengeExpired", "challenge expired or already used")
	ErrInvalidCredential  = NewKind(CodeInvalidArgument, "InvalidCredentialType", "credential type must be public-key")
	ErrChallengeMismatch  = NewKind(CodeUnauthenticated, "ChallengeMismatch", "client data challenge does not match issued challenge")
	ErrOriginMismatch     = NewKind(CodeUnauthenticated, "OriginMismatch", "client data origin does not match relying party origin")
	ErrInvalidCeremony    = NewKind(CodeInvalidArgument, "InvalidCeremonyType", "unexpected client data type")
	ErrMalformedAuthData  = NewKind(CodeInvalidArgument, "MalformedAuthenticatorData", "malformed authenticator data")
	ErrRpIDMismatch       = NewKind(CodeUnauthenticated, "RpIdMismatch", "rp id hash does not match relying party")
	ErrUserPresence       = NewKind(CodeUnauthenticated, "UserPresenceRequired", "user presence flag not set")
	ErrMissingCredData    = NewKind(CodeInvalidArgument, "MissingCredentialData", "attested credential data missing")
	ErrUnsupportedKey     = NewKind(CodeInvalidArgument, "UnsupportedKeyFormat", "unsupported COSE key format")
	ErrCredentialExists   = NewKind(CodeAlreadyExists, "CredentialAlreadyRegistered", "credential is already registered")
	ErrUnknownCredential  = NewKind(CodeNotFound, "UnknownCredential", "no credential registered with this id")
	ErrInvalidSigEncoding = NewKind(CodeInvalidArgument, "InvalidSignatureEncoding", "invalid signature encoding")
	ErrInvalidSignature   = NewKind(CodeUnauthenticated, "InvalidSignature", "signature verification failed")
	ErrClonedCredential   = NewKind(CodeUnauthenticated, "PossibleClonedAuthenticator", "signature counter did not increase, possible cloned authenticator")
)

func ErrRegistrationFailed(cause error) error {
	return Wrap(CodeInternal, "registration failed", cause)
}

func ErrAuthenticationFailed(cause error) error {
	return Wrap(CodeInternal, "authentication failed", cause)
}
