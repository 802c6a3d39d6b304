package webauthn

import (
	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

// AttestationObject is the CBOR envelope returned at registration. The
// attestation statement is deliberately not interpreted — we only ever
// request "none" attestation — but it must still be well-formed CBOR so the
// envelope can be walked safely.
type AttestationObject struct {
	Format   string
	AuthData *AuthenticatorData

	rawAuthData []byte
}

// RawAuthData returns the undecoded authenticator data bytes.
func (o *AttestationObject) RawAuthData() []byte {
	return o.rawAuthData
}

// ParseAttestationObject decodes the {fmt, attStmt, authData} map and the
// authenticator data nested inside it.
func ParseAttestationObject(raw []byte) (*AttestationObject, error) {
	d := newCBORDecoder(raw)

	entries, err := d.readMapHeader()
	if err != nil {
		return nil, appErrors.ErrMalformedAuthData
	}

	var format string
	var authData []byte
	for i := 0; i < entries; i++ {
		key, err := d.readString()
		if err != nil {
			return nil, appErrors.ErrMalformedAuthData
		}
		switch key {
		case "fmt":
			if format, err = d.readString(); err != nil {
				return nil, appErrors.ErrMalformedAuthData
			}
		case "authData":
			if authData, err = d.readBytes(); err != nil {
				return nil, appErrors.ErrMalformedAuthData
			}
		default:
			if err := d.skip(); err != nil {
				return nil, appErrors.ErrMalformedAuthData
			}
		}
	}
	if !d.done() || len(authData) == 0 {
		return nil, appErrors.ErrMalformedAuthData
	}

	ad, err := ParseAuthenticatorData(authData)
	if err != nil {
		return nil, err
	}
	return &AttestationObject{
		Format:      format,
		AuthData:    ad,
		rawAuthData: authData,
	}, nil
}
