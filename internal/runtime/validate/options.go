package validate

import (
	"fmt"
	"strings"
)

// Mode selects how much of a value's shape is enforced.
type Mode int

const (
	// ModePresence only checks required fields exist and projects declared
	// fields. Values are copied without type, enum or oneOf checks.
	ModePresence Mode = iota
	// ModeStrict additionally checks primitive types, enum membership, oneOf
	// variants and every array element.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModePresence:
		return "presence"
	case ModeStrict:
		return "strict"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a configuration value onto a Mode. Empty means ModePresence.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "presence":
		return ModePresence, nil
	case "strict":
		return ModeStrict, nil
	}
	return ModePresence, fmt.Errorf("unknown validation mode %q (want presence or strict)", s)
}

// Presence decides which values count as missing for required fields.
type Presence int

const (
	// PresenceDefined treats only absent keys and nil values as missing.
	PresenceDefined Presence = iota
	// PresenceTruthy also treats "", 0 and false as missing.
	PresenceTruthy
)

func (p Presence) String() string {
	if p == PresenceTruthy {
		return "truthy"
	}
	return "defined"
}

// Options configures Compile. The zero value is presence mode with
// definedness checks.
type Options struct {
	Mode     Mode
	Presence Presence
}
