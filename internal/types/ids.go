package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID is a canonical lowercase UUID string. Documents, tenants, and chunks
// all identify themselves with one.
type ID string

// NewID returns a random v4 ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID validates s as a UUID and canonicalizes it to lowercase.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}
	return ID(parsed.String()), nil
}

// MustParseID is ParseID for fixtures and constants; it panics on bad input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate reports whether the ID is a well-formed UUID.
func (id ID) Validate() error {
	_, err := ParseID(string(id))
	return err
}

func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON renders the zero ID as null so optional IDs disappear from
// payloads instead of serializing as "".
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts null and empty strings as the zero ID and validates
// everything else.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal ID: %w", err)
	}
	if s == "" {
		*id = ""
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
