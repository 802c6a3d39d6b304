package webauthn

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

// Synthetic authenticator payloads, encoded with fxamacker/cbor so the
// hand-rolled decoder is checked against an independent encoder.

func makeCOSEKey(t *testing.T, x, y []byte) []byte {
	t.Helper()
	b, err := cbor.Marshal(map[int64]interface{}{
		1:  2,  // kty: EC2
		3:  -7, // alg: ES256
		-1: 1,  // crv: P-256
		-2: x,
		-3: y,
	})
	require.NoError(t, err)
	return b
}

func makeAuthData(t *testing.T, rpID string, flags byte, signCount uint32, credID, coseKey []byte) []byte {
	t.Helper()
	rpIDHash := sha256.Sum256([]byte(rpID))

	b := make([]byte, 0, 128)
	b = append(b, rpIDHash[:]...)
	b = append(b, flags)
	b = binary.BigEndian.AppendUint32(b, signCount)

	if flags&flagAttestedCredentialData != 0 {
		b = append(b, make([]byte, 16)...) // zero AAGUID
		b = binary.BigEndian.AppendUint16(b, uint16(len(credID)))
		b = append(b, credID...)
		b = append(b, coseKey...)
	}
	return b
}

func makeAttestationObject(t *testing.T, authData []byte) []byte {
	t.Helper()
	b, err := cbor.Marshal(map[string]interface{}{
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
		"authData": authData,
	})
	require.NoError(t, err)
	return b
}

func generateKey(t *testing.T) (*ecdsa.PrivateKey, []byte, []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	x := priv.PublicKey.X.FillBytes(make([]byte, 32))
	y := priv.PublicKey.Y.FillBytes(make([]byte, 32))
	return priv, x, y
}

func rawPoint(x, y []byte) []byte {
	p := append([]byte{0x04}, x...)
	return append(p, y...)
}
