package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/upb/enrollment-auth/auth"
	"github.com/upb/enrollment-auth/models"
	"github.com/upb/enrollment-auth/repositories"
	"github.com/upb/enrollment-auth/utils"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(subjectID, email, firstName, lastName string, roles []models.Role) (string, error)
}

// RegisterInput is a self-registration request
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token string
	User  *models.User
}

// Authenticator registers users with local credentials and logs them in
type Authenticator struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	hasher auth.PasswordHasher
	issuer TokenIssuer
	logger *zap.Logger
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	hasher auth.PasswordHasher,
	issuer TokenIssuer,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		users:  users,
		txMgr:  txMgr,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
	}
}

// validateRegistration applies the registration rules in order and
// returns the first violation
func validateRegistration(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Email) == "":
		return NewValidationError("Email is required")
	case !utils.IsValidEmail(in.Email):
		return NewValidationError("Invalid email format")
	case strings.TrimSpace(in.FirstName) == "":
		return NewValidationError("FirstName is required")
	case utf8.RuneCountInString(in.FirstName) < minNameLength:
		return NewValidationError("FirstName must be at least 2 characters")
	case strings.TrimSpace(in.LastName) == "":
		return NewValidationError("LastName is required")
	case utf8.RuneCountInString(in.LastName) < minNameLength:
		return NewValidationError("LastName must be at least 2 characters")
	case strings.TrimSpace(in.Password) == "":
		return NewValidationError("Password is required")
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return NewValidationError("Password must be at least 6 characters")
	}
	return nil
}

// Register validates input, rejects duplicate emails and stores a new
// Student with a hashed password
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	exists, err := a.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, WrapInternal("failed to check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	digest, err := a.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, NewValidationError("Password must be at most 72 bytes")
		}
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Email, in.FirstName, in.LastName, digest)

	err = WithTransaction(ctx, a.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return a.users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, WrapInternal("failed to create user", err)
	}

	a.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
	)
	return user, nil
}

// Login verifies credentials and issues a bearer token carrying the user's role
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if !user.HasLocalCredentials() || !a.hasher.Verify(password, *user.PasswordHash) {
		a.logger.Info("login rejected", zap.String("user_id", user.ID.String()))
		return nil, ErrIncorrectPassword
	}

	token, err := a.issuer.Issue(user.ID.String(), user.Email, user.FirstName, user.LastName, []models.Role{user.Role})
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}
