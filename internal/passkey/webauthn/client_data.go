package webauthn

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	appErrors "github.com/phulin/oy2-sub000/pkg/errors"
)

// Client data types set by the browser for the two ceremonies.
const (
	ClientDataTypeCreate = "webauthn.create"
	ClientDataTypeGet    = "webauthn.get"
)

// ClientData is the collected client data the browser serializes into
// clientDataJSON and the authenticator signs over.
// https://www.w3.org/TR/webauthn-3/#dictionary-client-data
type ClientData struct {
	Type        string              `json:"type"`
	Challenge   clientDataChallenge `json:"challenge"`
	Origin      string              `json:"origin"`
	CrossOrigin bool                `json:"crossOrigin"`
}

// ChallengeEqual compares the decoded challenge in constant time.
func (c *ClientData) ChallengeEqual(challenge []byte) bool {
	return subtle.ConstantTimeCompare([]byte(c.Challenge), challenge) == 1
}

// ParseClientData decodes clientDataJSON.
func ParseClientData(raw []byte) (*ClientData, error) {
	var cd ClientData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInvalidArgument, "invalid client data json", err)
	}
	return &cd, nil
}

// clientDataChallenge decodes the base64url (no padding) challenge field.
type clientDataChallenge []byte

func (c *clientDataChallenge) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*c = data
	return nil
}

// RPIDFromOrigin derives the relying-party id from an effective origin: the
// hostname alone, no scheme and no port, so one deployment answers
// consistently for whichever hostname the request arrived on.
func RPIDFromOrigin(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Hostname() == "" {
		return "", appErrors.InvalidArg("invalid origin")
	}
	return u.Hostname(), nil
}
