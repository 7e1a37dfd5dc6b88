// Package ids generates identifiers: UUIDs for envelopes and ULIDs for bus
// messages.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// EnvelopeIDLength is the length of a canonical hyphenated UUID.
const EnvelopeIDLength = 36

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
// The bus uses it for Watermill message UUIDs.
func CreateULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}

// NewEnvelopeID returns a random (version 4) UUID in canonical form.
func NewEnvelopeID() string {
	return uuid.NewString()
}

// IsEnvelopeID reports whether s is a UUID in canonical 36-character form.
// Braced, URN and unhyphenated spellings are rejected.
func IsEnvelopeID(s string) bool {
	if len(s) != EnvelopeIDLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
