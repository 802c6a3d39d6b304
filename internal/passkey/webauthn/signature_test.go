package webauthn

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"math/big"
	"testing"

	appErrors "github.com/phulin/oy2-sub000/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func derSignature(t *testing.T, r, s *big.Int) []byte {
	t.Helper()
	b, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	require.NoError(t, err)
	return b
}

func TestConvertDERSignature(t *testing.T) {
	t.Run("happy path - matches reference r and s", func(t *testing.T) {
		priv, _, _ := generateKey(t)
		digest := sha256.Sum256([]byte("signed message"))

		r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
		require.NoError(t, err)

		raw, err := ConvertDERSignature(derSignature(t, r, s))
		require.NoError(t, err)
		require.Len(t, raw, 64)

		assert.Equal(t, r.FillBytes(make([]byte, 32)), raw[:32])
		assert.Equal(t, s.FillBytes(make([]byte, 32)), raw[32:])
	})

	t.Run("happy path - conversion is deterministic", func(t *testing.T) {
		priv, _, _ := generateKey(t)
		digest := sha256.Sum256([]byte("again"))
		sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
		require.NoError(t, err)

		first, err := ConvertDERSignature(sig)
		require.NoError(t, err)
		second, err := ConvertDERSignature(sig)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("happy path - known vector with high-bit padding", func(t *testing.T) {
		// r has its high bit set, so DER prepends a zero byte; s is short
		// and must come back left-padded.
		r := new(big.Int).SetBytes(append([]byte{0x80}, make([]byte, 31)...))
		s := big.NewInt(0x0102)

		raw, err := ConvertDERSignature(derSignature(t, r, s))
		require.NoError(t, err)

		wantR := append([]byte{0x80}, make([]byte, 31)...)
		wantS := append(make([]byte, 30), 0x01, 0x02)
		assert.Equal(t, wantR, raw[:32])
		assert.Equal(t, wantS, raw[32:])
	})

	t.Run("sad path - not a DER sequence", func(t *testing.T) {
		_, err := ConvertDERSignature(make([]byte, 64))
		assert.ErrorIs(t, err, appErrors.ErrInvalidSigEncoding)

		_, err = ConvertDERSignature(nil)
		assert.ErrorIs(t, err, appErrors.ErrInvalidSigEncoding)
	})

	t.Run("sad path - scalar longer than 32 bytes", func(t *testing.T) {
		r := new(big.Int).Lsh(big.NewInt(1), 280) // 36-byte integer
		s := big.NewInt(7)

		_, err := ConvertDERSignature(derSignature(t, r, s))
		assert.ErrorIs(t, err, appErrors.ErrInvalidSigEncoding)
	})

	t.Run("sad path - truncated body", func(t *testing.T) {
		priv, _, _ := generateKey(t)
		digest := sha256.Sum256([]byte("x"))
		sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
		require.NoError(t, err)

		_, err = ConvertDERSignature(sig[:len(sig)-3])
		assert.ErrorIs(t, err, appErrors.ErrInvalidSigEncoding)
	})
}

func TestVerifyES256(t *testing.T) {
	priv, x, y := generateKey(t)
	pub := rawPoint(x, y)
	message := []byte("authenticator data || client data hash")

	sign := func(t *testing.T, msg []byte) []byte {
		t.Helper()
		digest := sha256.Sum256(msg)
		sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
		require.NoError(t, err)
		return sig
	}

	t.Run("happy path - valid signature", func(t *testing.T) {
		ok, err := VerifyES256(pub, sign(t, message), message)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("sad path - tampered message returns false not error", func(t *testing.T) {
		ok, err := VerifyES256(pub, sign(t, message), []byte("tampered"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sad path - wrong key returns false not error", func(t *testing.T) {
		_, otherX, otherY := generateKey(t)
		ok, err := VerifyES256(rawPoint(otherX, otherY), sign(t, message), message)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sad path - raw signature bytes rejected", func(t *testing.T) {
		_, err := VerifyES256(pub, make([]byte, 64), message)
		assert.ErrorIs(t, err, appErrors.ErrInvalidSigEncoding)
	})

	t.Run("sad path - malformed public key point", func(t *testing.T) {
		_, err := VerifyES256(pub[:64], sign(t, message), message)
		assert.ErrorIs(t, err, appErrors.ErrUnsupportedKey)

		notOnCurve := rawPoint(x, x)
		_, err = VerifyES256(notOnCurve, sign(t, message), message)
		assert.ErrorIs(t, err, appErrors.ErrUnsupportedKey)
	})
}
