package models

import (
	"time"
)

// Challenge purposes. Registration challenges are keyed by subject id (one
// in-flight ceremony per subject); authentication challenges by a random
// ceremony id, so the subject does not need to be known up front.
const (
	PurposeRegister     = "register"
	PurposeAuthenticate = "authenticate"
)

// Challenge is a single-use random value with a short TTL, one per in-flight
// ceremony. Consumed (read then deleted) exactly once; never updated.
type Challenge struct {
	Purpose string `bun:",pk"`
	Key     string `bun:",pk"`

	Value     []byte    `bun:",notnull"`
	ExpiresAt time.Time `bun:",notnull"`
}
