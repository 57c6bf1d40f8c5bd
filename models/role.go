package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Role is the closed set of roles a user can hold.
// The zero value is RoleStudent, so records default to Student.
type Role uint8

const (
	RoleStudent Role = iota
	RoleAdmin
)

// ErrUnknownRole is returned when a role name is not one of the defined roles
var ErrUnknownRole = errors.New("unknown role")

// String returns the wire and storage spelling of the role
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleAdmin:
		return "Admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// ParseRole converts a role name into a Role. Matching is case-sensitive.
func ParseRole(s string) (Role, error) {
	switch s {
	case "Student":
		return RoleStudent, nil
	case "Admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer so roles are stored as text
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return r.String(), nil
}

// Scan implements sql.Scanner
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RoleStudent
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}
