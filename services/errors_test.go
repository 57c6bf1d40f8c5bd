package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "Email is required",
			},
			wantMsg: "validation: Email is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewValidationError("Password is required"), NewValidationError("Invalid email format"), true},
		{"different error type", NewValidationError("Password is required"), ErrUserNotFound, false},
		{"both credential errors are unauthorized", ErrAccountNotFound, ErrIncorrectPassword, true},
		{"not a domain error", ErrUserNotFound, errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)

	err.WithDetail("field", "email").WithDetail("value", "invalid-email")

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "invalid-email", err.Details["value"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrUserNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"nil is not found", nil, IsNotFoundError, false},
		{"validation", NewValidationError("Invalid email format"), IsValidationError, true},
		{"regular is not validation", errors.New("regular"), IsValidationError, false},
		{"account not found is unauthorized", ErrAccountNotFound, IsUnauthorizedError, true},
		{"incorrect password is unauthorized", ErrIncorrectPassword, IsUnauthorizedError, true},
		{"forbidden", NewDomainError(ErrorTypeForbidden, "access forbidden", nil), IsForbiddenError, true},
		{"unauthorized is not forbidden", ErrIncorrectPassword, IsForbiddenError, false},
		{"duplicate email is conflict", ErrDuplicateEmail, IsConflictError, true},
		{"provisioning", ErrProvisioningFailed, IsProvisioningError, true},
		{"conflict is not provisioning", ErrDuplicateEmail, IsProvisioningError, false},
				{"wrapped internal", WrapInternal("db", errors.New("x")), IsInternalError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestCredentialErrorMessages(t *testing.T) {
	assert.Equal(t, "You do not have a valid account. Please register for a new account.", ErrAccountNotFound.Message)
	assert.Equal(t, "Incorrect password. Please try again.", ErrIncorrectPassword.Message)
	assert.Equal(t, "Invalid credentials", ErrAccountNotFound.Details[DetailTitle])
	assert.Equal(t, "Invalid credentials", ErrIncorrectPassword.Details[DetailTitle])
	assert.Equal(t, "Email already registered", ErrDuplicateEmail.Message)
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", ErrUserNotFound, ErrorTypeNotFound},
		{"validation", NewValidationError("Email is required"), ErrorTypeValidation},
		{"conflict", ErrDuplicateEmail, ErrorTypeConflict},
		{"provisioning", ErrProvisioningFailed, ErrorTypeProvisioning},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "email").WithDetail("reason", "invalid format")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "email", details["field"])
	assert.Equal(t, "invalid format", details["reason"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapInternal(t *testing.T) {
	baseErr := errors.New("base error")
	wrapped := WrapInternal("wrapped message", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeInternal, domainErr.Type)
	assert.Equal(t, "wrapped message", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}
