package shared

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidRef indicates a reference string that is not a valid identity.
var ErrInvalidRef = errors.New("invalid reference")

// Ref is an explicit reference to another record. Repository filters accept
// identities either as native UUIDs or as their string form; Ref normalises
// both at the boundary so no query builder needs per-field coercion.
type Ref struct {
	UUID  uuid.UUID
	Valid bool
}

// NewRef wraps a native identity.
func NewRef(id uuid.UUID) Ref {
	return Ref{UUID: id, Valid: id != uuid.Nil}
}

// ParseRef normalises a string identity. An empty string yields the zero Ref.
func ParseRef(v string) (Ref, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Ref{}, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return Ref{}, ErrInvalidRef
	}
	return Ref{UUID: id, Valid: true}, nil
}

// MustRef parses a string identity and panics on failure. Test helper.
func MustRef(v string) Ref {
	r, err := ParseRef(v)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the canonical string form, empty when the Ref is unset.
func (r Ref) String() string {
	if !r.Valid {
		return ""
	}
	return r.UUID.String()
}

// IsZero reports whether the Ref is unset.
func (r Ref) IsZero() bool {
	return !r.Valid
}

// Ptr returns the native identity or nil when unset, for SQL parameters.
func (r Ref) Ptr() *uuid.UUID {
	if !r.Valid {
		return nil
	}
	id := r.UUID
	return &id
}

// Equal compares two refs by identity.
func (r Ref) Equal(other Ref) bool {
	return r.Valid == other.Valid && r.UUID == other.UUID
}

// MarshalText encodes the Ref as its string form.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a Ref from its string form.
func (r *Ref) UnmarshalText(data []byte) error {
	parsed, err := ParseRef(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
