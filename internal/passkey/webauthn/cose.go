package webauthn

import (
	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

// COSE_Key labels and values for the one key shape we accept: an EC2 key on
// P-256 signing with ES256. https://www.iana.org/assignments/cose
const (
	coseLabelKty = 1
	coseLabelAlg = 3
	coseLabelCrv = -1
	coseLabelX   = -2
	coseLabelY   = -3

	coseKtyEC2   = 2
	coseAlgES256 = -7
	coseCrvP256  = 1

	coseCoordinateSize = 32
)

// parseCOSEKey decodes the credential public key that trails attested
// credential data. Only the exact 5-entry EC2/ES256 map emitted by platform
// authenticators is accepted; every other shape — different key type, curve,
// algorithm, map size or coordinate width — is rejected as unsupported rather
// than interpreted. Returns the 32-byte X and Y coordinates.
func parseCOSEKey(d *cborDecoder) (x, y []byte, err error) {
	entries, err := d.readMapHeader()
	if err != nil || entries != 5 {
		return nil, nil, appErrors.ErrUnsupportedKey
	}

	var sawKty, sawAlg, sawCrv bool
	for i := 0; i < entries; i++ {
		label, err := d.readInt()
		if err != nil {
			return nil, nil, appErrors.ErrUnsupportedKey
		}
		switch label {
		case coseLabelKty:
			v, err := d.readInt()
			if err != nil || v != coseKtyEC2 {
				return nil, nil, appErrors.ErrUnsupportedKey
			}
			sawKty = true
		case coseLabelAlg:
			v, err := d.readInt()
			if err != nil || v != coseAlgES256 {
				return nil, nil, appErrors.ErrUnsupportedKey
			}
			sawAlg = true
		case coseLabelCrv:
			v, err := d.readInt()
			if err != nil || v != coseCrvP256 {
				return nil, nil, appErrors.ErrUnsupportedKey
			}
			sawCrv = true
		case coseLabelX:
			x, err = d.readBytes()
			if err != nil || len(x) != coseCoordinateSize {
				return nil, nil, appErrors.ErrUnsupportedKey
			}
		case coseLabelY:
			y, err = d.readBytes()
			if err != nil || len(y) != coseCoordinateSize {
				return nil, nil, appErrors.ErrUnsupportedKey
			}
		default:
			return nil, nil, appErrors.ErrUnsupportedKey
		}
	}
	if !sawKty || !sawAlg || !sawCrv || x == nil || y == nil {
		return nil, nil, appErrors.ErrUnsupportedKey
	}
	return x, y, nil
}
