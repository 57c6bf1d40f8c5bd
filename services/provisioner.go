package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/enrollment-auth/auth"
	"github.com/upb/enrollment-auth/models"
	"github.com/upb/enrollment-auth/repositories"
)

// Provisioner creates local user records for identities authenticated by an
// external authority. Records are keyed by email, so repeated calls for the
// same principal return the same user.
type Provisioner struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(users repositories.UserRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		users:  users,
		txMgr:  txMgr,
		logger: logger,
	}
}

// ProvisionFromClaims returns the user for principal, creating a Student
// without local credentials on first sight. Principals lacking an email or a
// resolvable first and last name yield ErrProvisioningFailed.
func (p *Provisioner) ProvisionFromClaims(ctx context.Context, principal *auth.Principal) (*models.User, error) {
	if principal == nil {
		return nil, ErrProvisioningFailed
	}

	email := strings.TrimSpace(principal.Email)
	firstName, lastName := resolveNames(principal)
	if email == "" || firstName == "" || lastName == "" {
		p.logger.Warn("provisioning rejected: incomplete claims",
			zap.String("subject", principal.SubjectID),
			zap.Bool("has_email", email != ""),
			zap.Bool("has_first_name", firstName != ""),
			zap.Bool("has_last_name", lastName != ""),
		)
		return nil, ErrProvisioningFailed
	}

	existing, err := p.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapInternal("failed to look up user", err)
	}

	user := models.NewExternalUser(email, firstName, lastName)
	err = WithTransaction(ctx, p.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return p.users.Create(ctx, user)
	})
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		// a concurrent request created the record first
		existing, err := p.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, WrapInternal("failed to re-read provisioned user", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, WrapInternal("failed to provision user", err)
	}

	p.logger.Info("user provisioned from external identity",
		zap.String("user_id", user.ID.String()),
		zap.String("subject", principal.SubjectID),
	)
	return user, nil
}

// resolveNames prefers the given/family name claims and falls back to
// splitting the display name on its first space
func resolveNames(principal *auth.Principal) (string, string) {
	first := strings.TrimSpace(principal.FirstName)
	last := strings.TrimSpace(principal.LastName)
	if first != "" && last != "" {
		return first, last
	}

	name := strings.TrimSpace(principal.Name)
	if name == "" {
		return first, last
	}
	nameFirst, nameLast, _ := strings.Cut(name, " ")
	if first == "" {
		first = strings.TrimSpace(nameFirst)
	}
	if last == "" {
		last = strings.TrimSpace(nameLast)
	}
	return first, last
}
