package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/enrollment-auth/models"
)

// Principal is the verified identity extracted from a bearer token
type Principal struct {
	SubjectID string
	Email     string
	Name      string
	FirstName string
	LastName  string
	Roles     []models.Role
	Issuer    string
	ExpiresAt time.Time
}

// HasRole reports whether the principal holds role
func (p *Principal) HasRole(role models.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of roles
func (p *Principal) HasAnyRole(roles ...models.Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// DisplayName returns the name claim, or first and last name joined
func (p *Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// tokenClaims is the JWT payload. Locally issued tokens use sub, email, name,
// given_name, family_name and role; the remaining fields are read from
// external authority tokens only.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email             string           `json:"email,omitempty"`
	Name              string           `json:"name,omitempty"`
	GivenName         string           `json:"given_name,omitempty"`
	FamilyName        string           `json:"family_name,omitempty"`
	Role              jwt.ClaimStrings `json:"role,omitempty"`
	Roles             jwt.ClaimStrings `json:"roles,omitempty"`
	PreferredUsername string           `json:"preferred_username,omitempty"`
	UPN               string           `json:"upn,omitempty"`
	OID               string           `json:"oid,omitempty"`
}

func (c *tokenClaims) principal() (*Principal, error) {
	subject := c.Subject
	if subject == "" {
		subject = c.OID
	}
	if subject == "" {
		return nil, ErrMissingSubject
	}

	email := c.Email
	if email == "" {
		email = c.PreferredUsername
	}
	if email == "" {
		email = c.UPN
	}

	p := &Principal{
		SubjectID: subject,
		Email:     email,
		Name:      c.Name,
		FirstName: c.GivenName,
		LastName:  c.FamilyName,
		Roles:     parseRoles(c.Role, c.Roles),
		Issuer:    c.Issuer,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}

// parseRoles keeps the defined roles and drops everything else
func parseRoles(lists ...jwt.ClaimStrings) []models.Role {
	var roles []models.Role
	seen := make(map[models.Role]struct{})
	for _, list := range lists {
		for _, name := range list {
			role, err := models.ParseRole(name)
			if err != nil {
				continue
			}
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}
	return roles
}
