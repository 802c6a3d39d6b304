package webauthn

import (
	"encoding/binary"

	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

// Authenticator data flag bits.
// https://www.w3.org/TR/webauthn-3/#authdata-flags
const (
	flagUserPresent            = byte(1)
	flagUserVerified           = byte(1 << 2)
	flagAttestedCredentialData = byte(1 << 6)
)

// minAuthDataLen is rpIdHash(32) + flags(1) + signCount(4).
const minAuthDataLen = 37

// AuthenticatorData is the fixed-layout blob an authenticator signs:
// rpIdHash ‖ flags ‖ signCount ‖ [attestedCredentialData].
type AuthenticatorData struct {
	RPIDHash  []byte
	Flags     byte
	SignCount uint32

	// Attested is only present at registration, when the attested
	// credential data flag is set.
	Attested *AttestedCredentialData
}

type AttestedCredentialData struct {
	AAGUID       []byte
	CredentialID []byte

	// PublicKey is the raw 65-byte uncompressed P-256 point 0x04 ‖ X ‖ Y
	// reconstructed from the COSE key.
	PublicKey []byte
}

func (a *AuthenticatorData) UserPresent() bool {
	return a.Flags&flagUserPresent != 0
}

func (a *AuthenticatorData) UserVerified() bool {
	return a.Flags&flagUserVerified != 0
}

func (a *AuthenticatorData) HasAttestedCredentialData() bool {
	return a.Flags&flagAttestedCredentialData != 0
}

// ParseAuthenticatorData decodes raw authenticator data. When the attested
// credential data flag is set the trailing AAGUID, credential id and COSE
// public key are decoded as well; a declared section running past the end of
// the buffer fails rather than reading out of bounds.
func ParseAuthenticatorData(raw []byte) (*AuthenticatorData, error) {
	if len(raw) < minAuthDataLen {
		return nil, appErrors.ErrMalformedAuthData
	}

	ad := &AuthenticatorData{
		RPIDHash:  raw[0:32],
		Flags:     raw[32],
		SignCount: binary.BigEndian.Uint32(raw[33:37]),
	}
	if !ad.HasAttestedCredentialData() {
		return ad, nil
	}

	rest := raw[minAuthDataLen:]
	// AAGUID(16) + credential id length(2)
	if len(rest) < 18 {
		return nil, appErrors.ErrMalformedAuthData
	}
	credIDLen := int(binary.BigEndian.Uint16(rest[16:18]))
	if len(rest) < 18+credIDLen {
		return nil, appErrors.ErrMalformedAuthData
	}

	d := newCBORDecoder(rest[18+credIDLen:])
	x, y, err := parseCOSEKey(d)
	if err != nil {
		return nil, err
	}

	point := make([]byte, 0, 65)
	point = append(point, 0x04)
	point = append(point, x...)
	point = append(point, y...)

	ad.Attested = &AttestedCredentialData{
		AAGUID:       rest[0:16],
		CredentialID: rest[18 : 18+credIDLen],
		PublicKey:    point,
	}
	return ad, nil
}
