package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a locally stored identity, either registered with a password
// or provisioned from an external identity provider.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	PasswordHash *string   `json:"-" db:"password_hash"` // nil for externally provisioned users
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// NewUser creates a locally registered user with the default role
func NewUser(email, firstName, lastName, passwordHash string) *User {
	return &User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: &passwordHash,
		Role:         RoleStudent,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewExternalUser creates a user provisioned from external identity claims.
// It carries no password hash and can never log in with a local password.
func NewExternalUser(email, firstName, lastName string) *User {
	return &User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      RoleStudent,
		CreatedAt: time.Now().UTC(),
	}
}

// HasLocalCredentials reports whether the user can authenticate with a password
func (u *User) HasLocalCredentials() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
