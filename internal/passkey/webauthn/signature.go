package webauthn

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"

	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

const (
	derSequenceTag = 0x30
	derIntegerTag  = 0x02

	// Each half of a raw P-256 signature.
	rawScalarSize = 32
)

// ConvertDERSignature converts an ASN.1 DER ECDSA signature into the raw
// fixed-width r ‖ s form, each scalar left-padded to 32 bytes. Authenticators
// always emit DER, so anything not starting with a SEQUENCE tag is rejected.
// A scalar still longer than 32 bytes after stripping leading zero bytes
// cannot be a P-256 value and is rejected too.
func ConvertDERSignature(sig []byte) ([]byte, error) {
	if len(sig) < 2 || sig[0] != derSequenceTag {
		return nil, appErrors.ErrInvalidSigEncoding
	}

	body, err := derLength(sig[1:])
	if err != nil {
		return nil, err
	}

	r, rest, err := derInteger(body)
	if err != nil {
		return nil, err
	}
	s, rest, err := derInteger(rest)
	if err != nil || len(rest) != 0 {
		return nil, appErrors.ErrInvalidSigEncoding
	}

	raw := make([]byte, 2*rawScalarSize)
	copy(raw[rawScalarSize-len(r):], r)
	copy(raw[2*rawScalarSize-len(s):], s)
	return raw, nil
}

// VerifyES256 checks an ECDSA P-256 signature over the SHA-256 digest of
// message, against a raw 65-byte uncompressed public key point. A malformed
// key or signature encoding returns an error; a well-formed signature that
// simply does not verify returns (false, nil) so callers can translate it
// into an authentication failure instead of a crash.
func VerifyES256(publicKey, sig, message []byte) (bool, error) {
	if len(publicKey) != 65 || publicKey[0] != 0x04 {
		return false, appErrors.ErrUnsupportedKey
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(publicKey[1:33])
	y := new(big.Int).SetBytes(publicKey[33:65])
	if !curve.IsOnCurve(x, y) {
		return false, appErrors.ErrUnsupportedKey
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	raw, err := ConvertDERSignature(sig)
	if err != nil {
		return false, err
	}
	r := new(big.Int).SetBytes(raw[:rawScalarSize])
	s := new(big.Int).SetBytes(raw[rawScalarSize:])

	digest := sha256.Sum256(message)
	return ecdsa.Verify(pub, digest[:], r, s), nil
}

// derLength consumes a DER length octet (short form, or the one-byte long
// form, which covers any ECDSA signature) and returns the body it delimits.
func derLength(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, appErrors.ErrInvalidSigEncoding
	}
	n := int(b[0])
	rest := b[1:]
	switch {
	case n < 0x80:
	case n == 0x81:
		if len(rest) == 0 {
			return nil, appErrors.ErrInvalidSigEncoding
		}
		n = int(rest[0])
		rest = rest[1:]
	default:
		return nil, appErrors.ErrInvalidSigEncoding
	}
	if n != len(rest) {
		return nil, appErrors.ErrInvalidSigEncoding
	}
	return rest, nil
}

// derInteger reads one INTEGER, strips leading zero padding and enforces the
// P-256 scalar width.
func derInteger(b []byte) (val, rest []byte, err error) {
	if len(b) < 2 || b[0] != derIntegerTag {
		return nil, nil, appErrors.ErrInvalidSigEncoding
	}
	n := int(b[1])
	if n == 0 || n > len(b)-2 {
		return nil, nil, appErrors.ErrInvalidSigEncoding
	}
	val = b[2 : 2+n]
	for len(val) > 1 && val[0] == 0 {
		val = val[1:]
	}
	if len(val) > rawScalarSize {
		return nil, nil, appErrors.ErrInvalidSigEncoding
	}
	return val, b[2+n:], nil
}
