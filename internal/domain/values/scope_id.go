// Package values contains domain value objects that wrap primitive types
// with validation.
package values

import (
	"fmt"

	"github.com/google/uuid"
)

// ScopeID uniquely identifies one execution scope instance.
// Two runs of the same consumer always get different ScopeIDs.
type ScopeID struct {
	value uuid.UUID
}

// NewScopeID creates a new random scope ID
func NewScopeID() ScopeID {
	return ScopeID{value: uuid.New()}
}

// ParseScopeID parses a string into a ScopeID
func ParseScopeID(s string) (ScopeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ScopeID{}, fmt.Errorf("invalid scope ID: %w", err)
	}
	return ScopeID{value: id}, nil
}

// MustParseScopeID parses a string or panics (for tests only)
func MustParseScopeID(s string) ScopeID {
	id, err := ParseScopeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (s ScopeID) String() string {
	return s.value.String()
}

// Short returns the first eight hex characters, for directory and log names.
func (s ScopeID) Short() string {
	return s.value.String()[:8]
}

// IsZero returns true if this is the zero value
func (s ScopeID) IsZero() bool {
	return s.value == uuid.Nil
}

// Equals checks if two ScopeIDs are equal
func (s ScopeID) Equals(other ScopeID) bool {
	return s.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (s ScopeID) MarshalText() ([]byte, error) {
	return []byte(s.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ScopeID) UnmarshalText(data []byte) error {
	id, err := ParseScopeID(string(data))
	if err != nil {
		return err
	}
	*s = id
	return nil
}
