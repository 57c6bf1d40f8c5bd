package auth

import "errors"

var (
	// ErrUnauthenticated is wrapped by every token validation failure
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrKeySetRequired is returned when external authority mode has no signing keys
	ErrKeySetRequired = errors.New("external authority mode requires a signing key set")

	// ErrMissingSubject is returned when a token would be issued without a subject
	ErrMissingSubject = errors.New("subject identifier is required")

	// ErrEmptyPassword is returned when hashing an empty password
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
