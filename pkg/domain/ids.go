package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier fails to parse at a trust boundary.
var ErrInvalidID = errors.New("invalid id")

// RecordID identifies a Registration or Change.
// Invariant: a parsed RecordID is never the nil UUID.
type RecordID uuid.UUID

// NewRecordID returns a fresh random RecordID.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// ParseRecordID constructs a RecordID from external input such as a queue
// message or a command-line flag.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

func (id RecordID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id RecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets RecordID travel inside JSON task payloads.
func (id RecordID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a RecordID from JSON task payloads.
func (id *RecordID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsValidUUID reports whether s is a non-nil, canonical UUID string.
func IsValidUUID(s string) bool {
	_, err := parseUUID(s)
	return err == nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", ErrInvalidID)
	}
	return u, nil
}
