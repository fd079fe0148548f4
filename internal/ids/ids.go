// Package ids provides the identifier generators injected into the engine
// for order and trade IDs.
package ids

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator produces unique identifiers. Implementations must be safe for
// concurrent use.
type Generator interface {
	NewID() string
}

// Func adapts an ordinary function to the Generator interface.
type Func func() string

// NewID calls f().
func (f Func) NewID() string {
	return f()
}

// Scheme names a built-in generator.
type Scheme string

const (
	SchemeULID Scheme = "ulid"
	SchemeUUID Scheme = "uuid"
)

// ULID generates lexically sortable, millisecond-ordered IDs.
type ULID struct{}

// NewID returns a new ULID string.
func (ULID) NewID() string {
	return ulid.Make().String()
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new UUID string.
func (UUID) NewID() string {
	return uuid.NewString()
}

// New returns the generator for the given scheme.
func New(scheme Scheme) (Generator, error) {
	switch scheme {
	case SchemeULID:
		return ULID{}, nil
	case SchemeUUID:
		return UUID{}, nil
	}
	return nil, fmt.Errorf("unknown id scheme %q, must be one of: ulid, uuid", scheme)
}
