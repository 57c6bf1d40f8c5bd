package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator verifies bearer tokens and extracts a Principal
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Principal, error)
}

var (
	symmetricMethods = []string{jwt.SigningMethodHS256.Alg()}
	externalMethods  = []string{"RS256", "RS384", "RS512", "ES256"}
)

// Validator implements TokenValidator for the mode chosen in Settings
type Validator struct {
	mode    Mode
	parser  *jwt.Parser
	keyfunc jwt.Keyfunc
}

// ValidatorOption customizes a Validator
type ValidatorOption func(*validatorOptions)

type validatorOptions struct {
	now    func() time.Time
	leeway time.Duration
}

// WithValidatorClock overrides the clock used for expiry checks
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(o *validatorOptions) {
		o.now = now
	}
}

// WithLeeway tolerates clock skew on exp and iat
func WithLeeway(d time.Duration) ValidatorOption {
	return func(o *validatorOptions) {
		o.leeway = d
	}
}

// NewValidator creates a Validator. In external authority mode keys must
// resolve the authority's signing keys; in symmetric mode it is ignored.
func NewValidator(settings Settings, keys jwt.Keyfunc, opts ...ValidatorOption) (*Validator, error) {
	o := validatorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithAudience(settings.Audience()),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(o.now),
	}
	if o.leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(o.leeway))
	}

	v := &Validator{mode: settings.Mode()}

	switch settings.Mode() {
	case ModeSymmetricKey:
		key := settings.key()
		v.keyfunc = func(*jwt.Token) (interface{}, error) {
			return key, nil
		}
		parserOpts = append(parserOpts,
			jwt.WithValidMethods(symmetricMethods),
			jwt.WithIssuer(settings.Issuer()),
		)
	case ModeExternalAuthority:
		if keys == nil {
			return nil, ErrKeySetRequired
		}
		v.keyfunc = keys
		parserOpts = append(parserOpts,
			jwt.WithValidMethods(externalMethods),
			jwt.WithIssuer(settings.Authority()),
		)
	default:
		return nil, fmt.Errorf("unsupported auth mode %d", settings.Mode())
	}

	v.parser = jwt.NewParser(parserOpts...)
	return v, nil
}

// Mode returns the trust mode this validator enforces
func (v *Validator) Mode() Mode {
	return v.mode
}

// Validate verifies signature, issuer, audience and lifetime, then returns
// the token's principal. Every failure wraps ErrUnauthenticated.
func (v *Validator) Validate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}

	claims := &tokenClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrUnauthenticated)
	}

	principal, err := claims.principal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return principal, nil
}
