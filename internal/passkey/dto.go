package passkey

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// NOTE: commands travel from handler to usecase
// Note: DTO travels from usecase to handler

// Subject identifies the authenticated account registering a passkey.
// Accounts themselves live outside this service.
type Subject struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
}

// Input commands

type FinishRegistrationCommand struct {
	Credential CreationCredential `json:"credential"`
	DeviceName string             `json:"deviceName,omitempty"`
}

type CreationCredential struct {
	ID       string              `json:"id"`
	RawID    string              `json:"rawId"`
	Type     string              `json:"type"`
	Response AttestationResponse `json:"response"`
}

type AttestationResponse struct {
	// base64url, no padding
	ClientDataJSON    string   `json:"clientDataJSON"`
	AttestationObject string   `json:"attestationObject"`
	Transports        []string `json:"transports,omitempty"`
}

type FinishAuthenticationCommand struct {
	AuthID     string              `json:"authId"`
	Credential AssertionCredential `json:"credential"`
}

type AssertionCredential struct {
	ID       string            `json:"id"`
	RawID    string            `json:"rawId"`
	Type     string            `json:"type"`
	Response AssertionResponse `json:"response"`
}

type AssertionResponse struct {
	// base64url, no padding
	ClientDataJSON    string `json:"clientDataJSON"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// Output DTOs

type RelyingPartyDTO struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type UserEntityDTO struct {
	ID          string `json:"id"` // base64url of the subject uuid bytes
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type PubKeyCredParamDTO struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

type CredentialDescriptorDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"` // base64url credential id
}

type AuthenticatorSelectionDTO struct {
	ResidentKey      string `json:"residentKey"`
	UserVerification string `json:"userVerification"`
}

type RegistrationOptionsDTO struct {
	Challenge              string                    `json:"challenge"`
	RP                     RelyingPartyDTO           `json:"rp"`
	User                   UserEntityDTO             `json:"user"`
	PubKeyCredParams       []PubKeyCredParamDTO      `json:"pubKeyCredParams"`
	Timeout                int64                     `json:"timeout"`
	Attestation            string                    `json:"attestation"`
	AuthenticatorSelection AuthenticatorSelectionDTO `json:"authenticatorSelection"`
	ExcludeCredentials     []CredentialDescriptorDTO `json:"excludeCredentials"`
}

type AuthenticationOptionsDTO struct {
	AuthID           string                    `json:"authId"`
	Challenge        string                    `json:"challenge"`
	RPID             string                    `json:"rpId"`
	Timeout          int64                     `json:"timeout"`
	UserVerification string                    `json:"userVerification"`
	AllowCredentials []CredentialDescriptorDTO `json:"allowCredentials"`
}

// AuthenticatedSubjectDTO is handed back after a verified assertion; session
// issuance is the caller's job.
type AuthenticatedSubjectDTO struct {
	SubjectID    uuid.UUID `json:"subjectId"`
	CredentialID string    `json:"credentialId"`
}

type CredentialDTO struct {
	ID           uuid.UUID  `json:"id"`
	CredentialID string     `json:"credentialId"`
	DeviceLabel  string     `json:"deviceLabel,omitempty"`
	Transports   []string   `json:"transports,omitempty"`
	SignCount    uint32     `json:"signCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty"`
}

// All binary fields cross the wire base64url-encoded without padding.

func EncodeB64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeB64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
