package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/enrollment-auth/models"
)

// TokenIssuer signs bearer tokens for locally authenticated users.
// Issuance always uses the symmetric key, whatever the validation mode.
type TokenIssuer struct {
	settings Settings
	now      func() time.Time
}

// IssuerOption customizes a TokenIssuer
type IssuerOption func(*TokenIssuer)

// WithIssuerClock overrides the clock used for iat and exp
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// NewTokenIssuer creates a TokenIssuer from the startup settings
func NewTokenIssuer(settings Settings, opts ...IssuerOption) *TokenIssuer {
	i := &TokenIssuer{
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue builds and signs a token for the given identity
func (i *TokenIssuer) Issue(subjectID, email, firstName, lastName string, roles []models.Role) (string, error) {
	if subjectID == "" {
		return "", ErrMissingSubject
	}

	roleNames := make(jwt.ClaimStrings, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.String())
	}

	now := i.now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.settings.Issuer(),
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{i.settings.Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.settings.TokenTTL())),
		},
		Email:      email,
		Name:       strings.TrimSpace(firstName + " " + lastName),
		GivenName:  firstName,
		FamilyName: lastName,
		Role:       roleNames,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.settings.key())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
