package auth

import (
	"strings"
	"time"
)

const (
	// DefaultSigningKey is used when no signing key is configured.
	// Never rely on it outside development.
	DefaultSigningKey = "DevelopmentSecretKey-ChangeInProduction-Minimum32Characters"

	// DefaultIssuer is the issuer and audience used when none is configured
	DefaultIssuer = "StudentCourseEnrollment"

	// DefaultTokenTTL is the validity window of issued tokens
	DefaultTokenTTL = 24 * time.Hour
)

// Mode selects how incoming bearer tokens are trusted
type Mode int

const (
	// ModeSymmetricKey validates tokens signed with the shared configured key
	ModeSymmetricKey Mode = iota
	// ModeExternalAuthority validates tokens against an identity provider's published keys
	ModeExternalAuthority
)

func (m Mode) String() string {
	switch m {
	case ModeSymmetricKey:
		return "SymmetricKey"
	case ModeExternalAuthority:
		return "ExternalAuthority"
	default:
		return "Unknown"
	}
}

// SelectMode picks the trust mode. Development environments and missing
// authority configuration both fall back to the symmetric key.
func SelectMode(development bool, instance, tenantID string) Mode {
	if development || strings.TrimSpace(instance) == "" || strings.TrimSpace(tenantID) == "" {
		return ModeSymmetricKey
	}
	return ModeExternalAuthority
}

// SettingsInput is the raw configuration Settings is built from
type SettingsInput struct {
	Development bool
	SecretKey   string
	Issuer      string
	Audience    string
	Instance    string
	TenantID    string
	JWKSURL     string
	TokenTTL    time.Duration
}

// Settings is the process-wide auth configuration. It is built once at
// startup and only exposes read accessors.
type Settings struct {
	mode            Mode
	signingKey      string
	usingDefaultKey bool
	issuer          string
	audience        string
	authority       string
	jwksURL         string
	tokenTTL        time.Duration
}

// NewSettings resolves defaults and selects the trust mode
func NewSettings(in SettingsInput) Settings {
	s := Settings{
		mode:       SelectMode(in.Development, in.Instance, in.TenantID),
		signingKey: in.SecretKey,
		issuer:     in.Issuer,
		audience:   in.Audience,
		tokenTTL:   in.TokenTTL,
	}

	if s.signingKey == "" {
		s.signingKey = DefaultSigningKey
		s.usingDefaultKey = true
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.audience == "" {
		s.audience = DefaultIssuer
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}

	if s.mode == ModeExternalAuthority {
		base := strings.TrimRight(strings.TrimSpace(in.Instance), "/") + "/" + strings.TrimSpace(in.TenantID)
		s.authority = base + "/v2.0"
		s.jwksURL = in.JWKSURL
		if s.jwksURL == "" {
			s.jwksURL = base + "/discovery/v2.0/keys"
		}
	}

	return s
}

// Mode returns the selected trust mode
func (s Settings) Mode() Mode { return s.mode }

// Issuer returns the issuer stamped on locally issued tokens
func (s Settings) Issuer() string { return s.issuer }

// Audience returns the audience required on every token
func (s Settings) Audience() string { return s.audience }

// Authority returns the external authority URL; empty in symmetric mode
func (s Settings) Authority() string { return s.authority }

// JWKSURL returns where the authority publishes its signing keys; empty in symmetric mode
func (s Settings) JWKSURL() string { return s.jwksURL }

// TokenTTL returns the validity window of issued tokens
func (s Settings) TokenTTL() time.Duration { return s.tokenTTL }

// UsingDefaultKey reports whether the development signing key is in use
func (s Settings) UsingDefaultKey() bool { return s.usingDefaultKey }

func (s Settings) key() []byte { return []byte(s.signingKey) }
