package ident

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID sizes.
const (
	GUIDSize     = 16
	PrefixSize   = 12
	EntityIDSize = 4
)

// ErrInvalidGUID is returned when parsing a malformed GUID.
var ErrInvalidGUID = errors.New("invalid GUID")

// GUID globally identifies a DDS entity.
type GUID [GUIDSize]byte

// Unknown is the zero GUID.
var Unknown GUID

// New returns a GUID built from a random (version 4) UUID.
func New() GUID {
	return GUID(uuid.New())
}

// FromUUID converts a UUID to a GUID byte for byte.
func FromUUID(u uuid.UUID) GUID {
	return GUID(u)
}

// Parse accepts either the dotted form produced by String or any form
// accepted by uuid.Parse.
func Parse(s string) (GUID, error) {
	if strings.Count(s, ".") == 3 {
		raw, err := hex.DecodeString(strings.ReplaceAll(s, ".", ""))
		if err != nil || len(raw) != GUIDSize {
			return Unknown, fmt.Errorf("%w: %q", ErrInvalidGUID, s)
		}
		var g GUID
		copy(g[:], raw)
		return g, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %q: %v", ErrInvalidGUID, s, err)
	}
	return GUID(u), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant tables.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

// IsUnknown returns true for the zero GUID.
func (g GUID) IsUnknown() bool {
	return g == Unknown
}

// Prefix returns the participant prefix.
func (g GUID) Prefix() [PrefixSize]byte {
	var p [PrefixSize]byte
	copy(p[:], g[:PrefixSize])
	return p
}

// EntityID returns the entity id within the participant.
func (g GUID) EntityID() [EntityIDSize]byte {
	var e [EntityIDSize]byte
	copy(e[:], g[PrefixSize:])
	return e
}

// Compare orders GUIDs bytewise, returning -1, 0 or +1.
func (g GUID) Compare(other GUID) int {
	return bytes.Compare(g[:], other[:])
}

// String returns the dotted hex form.
func (g GUID) String() string {
	h := hex.EncodeToString(g[:])
	return h[0:8] + "." + h[8:16] + "." + h[16:24] + "." + h[24:32]
}

// Short returns the last 8 hex digits, enough to tell entities apart in
// interactive output.
func (g GUID) Short() string {
	return hex.EncodeToString(g[PrefixSize:])
}

// MarshalText implements encoding.TextMarshaler.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
