package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/enrollment-auth/jwks"
	"github.com/upb/enrollment-auth/models"
)

const testSecret = "test-signing-key-with-at-least-32-characters"

func symmetricSettings() Settings {
	return NewSettings(SettingsInput{Development: true, SecretKey: testSecret})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	settings := symmetricSettings()
	issuer := NewTokenIssuer(settings)
	validator, err := NewValidator(settings, nil)
	require.NoError(t, err)

	subject := uuid.New().String()
	token, err := issuer.Issue(subject, "alice@x.com", "Alice", "Smith", []models.Role{models.RoleStudent})
	require.NoError(t, err)

	principal, err := validator.Validate(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, subject, principal.SubjectID)
	assert.Equal(t, "alice@x.com", principal.Email)
	assert.Equal(t, "Alice Smith", principal.Name)
	assert.Equal(t, "Alice", principal.FirstName)
	assert.Equal(t, "Smith", principal.LastName)
	assert.Equal(t, []models.Role{models.RoleStudent}, principal.Roles)
	assert.Equal(t, DefaultIssuer, principal.Issuer)
	assert.True(t, principal.HasRole(models.RoleStudent))
	assert.False(t, principal.HasRole(models.RoleAdmin))
}

func TestIssue_Claims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(symmetricSettings(), WithIssuerClock(fixedClock(now)))

	token, err := issuer.Issue("sub-1", "a@x.com", "Ann", "Lee", []models.Role{models.RoleAdmin})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", claims["sub"])
	assert.Equal(t, "a@x.com", claims["email"])
	assert.Equal(t, "Ann Lee", claims["name"])
	assert.Equal(t, "Ann", claims["given_name"])
	assert.Equal(t, "Lee", claims["family_name"])
	assert.Equal(t, []any{"Admin"}, claims["role"])
	assert.Equal(t, DefaultIssuer, claims["iss"])
	assert.EqualValues(t, now.Unix(), claims["iat"])
	assert.EqualValues(t, now.Add(24*time.Hour).Unix(), claims["exp"])
}

func TestIssue_RequiresSubject(t *testing.T) {
	_, err := NewTokenIssuer(symmetricSettings()).Issue("", "a@x.com", "A", "B", nil)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestValidate_Expiry(t *testing.T) {
	settings := symmetricSettings()
	issuedAt := time.Now().Add(-time.Hour)
	token, err := NewTokenIssuer(settings, WithIssuerClock(fixedClock(issuedAt))).
		Issue("sub-1", "a@x.com", "A", "B", nil)
	require.NoError(t, err)

	validator, err := NewValidator(settings, nil, WithValidatorClock(fixedClock(issuedAt.Add(23*time.Hour))))
	require.NoError(t, err)
	_, err = validator.Validate(context.Background(), token)
	assert.NoError(t, err)

	validator, err = NewValidator(settings, nil, WithValidatorClock(fixedClock(issuedAt.Add(25*time.Hour))))
	require.NoError(t, err)
	_, err = validator.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidate_Rejections(t *testing.T) {
	settings := symmetricSettings()
	validator, err := NewValidator(settings, nil)
	require.NoError(t, err)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return signed
	}
	valid := func() jwt.RegisteredClaims {
		now := time.Now()
		return jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "sub-1",
			Audience:  jwt.ClaimStrings{DefaultIssuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	noSubject := valid()
	noSubject.Subject = ""

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong key", sign(t, jwt.SigningMethodHS256, []byte("another-secret-key-of-32-characters!"), valid())},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), valid())},
		{"asymmetric algorithm", sign(t, jwt.SigningMethodRS256, rsaKey, valid())},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer)},
		{"wrong audience", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wrongAudience)},
		{"missing expiry", sign(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{"missing subject", sign(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := validator.Validate(context.Background(), tt.token)
			assert.Nil(t, principal)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestValidate_DropsUnknownRoles(t *testing.T) {
	settings := symmetricSettings()
	validator, err := NewValidator(settings, nil)
	require.NoError(t, err)

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "sub-1",
		"iss":   DefaultIssuer,
		"aud":   DefaultIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"role":  []string{"Admin", "Janitor"},
		"roles": "Student",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	principal, err := validator.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleStudent}, principal.Roles)
	assert.True(t, principal.HasAnyRole(models.RoleAdmin))
}

func TestNewValidator_ExternalRequiresKeys(t *testing.T) {
	settings := NewSettings(SettingsInput{Instance: "https://login.example.com/", TenantID: "t1"})
	_, err := NewValidator(settings, nil)
	assert.ErrorIs(t, err, ErrKeySetRequired)
}

func externalKeySet(t *testing.T, publicKey *rsa.PublicKey, kid string) *jwks.KeySet {
	doc, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kid": kid,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	keys, err := jwks.FromJSON(doc)
	require.NoError(t, err)
	return keys
}

func TestValidate_ExternalAuthority(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	settings := NewSettings(SettingsInput{
		Instance: "https://login.example.com/",
		TenantID: "tenant-1",
		Audience: "api://enrollment",
	})
	keys := externalKeySet(t, &privateKey.PublicKey, "kid-1")
	validator, err := NewValidator(settings, keys.Keyfunc)
	require.NoError(t, err)
	assert.Equal(t, ModeExternalAuthority, validator.Mode())

	now := time.Now()
	claims := jwt.MapClaims{
		"oid":                "object-id-1",
		"preferred_username": "carol@x.com",
		"given_name":         "Carol",
		"family_name":        "Diaz",
		"roles":              []string{"Admin"},
		"iss":                "https://login.example.com/tenant-1/v2.0",
		"aud":                "api://enrollment",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)

	principal, err := validator.Validate(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "object-id-1", principal.SubjectID)
	assert.Equal(t, "carol@x.com", principal.Email)
	assert.Equal(t, "Carol Diaz", principal.DisplayName())
	assert.Equal(t, []models.Role{models.RoleAdmin}, principal.Roles)

	// locally issued tokens are not trusted in external mode
	local, err := NewTokenIssuer(settings).Issue("sub-1", "a@x.com", "A", "B", nil)
	require.NoError(t, err)
	_, err = validator.Validate(context.Background(), local)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	claims["iss"] = "https://login.example.com/other-tenant/v2.0"
	token = jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "kid-1"
	signed, err = token.SignedString(privateKey)
	require.NoError(t, err)
	_, err = validator.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidate_ExternalRejections(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	foreignKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	settings := NewSettings(SettingsInput{
		Instance: "https://login.example.com/",
		TenantID: "tenant-1",
		Audience: "api://enrollment",
	})
	keys := externalKeySet(t, &privateKey.PublicKey, "kid-1")
	validator, err := NewValidator(settings, keys.Keyfunc)
	require.NoError(t, err)

	signWith := func(t *testing.T, method jwt.SigningMethod, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(method, claims)
		token.Header["kid"] = kid
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}
	sign := func(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
		return signWith(t, jwt.SigningMethodRS256, key, kid, claims)
	}
	valid := func() jwt.MapClaims {
		now := time.Now()
		return jwt.MapClaims{
			"oid":                "object-id-1",
			"preferred_username": "carol@x.com",
			"iss":                "https://login.example.com/tenant-1/v2.0",
			"aud":                "api://enrollment",
			"iat":                now.Unix(),
			"exp":                now.Add(time.Hour).Unix(),
		}
	}

	wrongAudience := valid()
	wrongAudience["aud"] = "api://other"
	expired := valid()
	expired["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noExpiry := valid()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{"wrong audience", sign(t, privateKey, "kid-1", wrongAudience)},
		{"expired", sign(t, privateKey, "kid-1", expired)},
		{"missing expiry", sign(t, privateKey, "kid-1", noExpiry)},
		{"foreign key under known kid", sign(t, foreignKey, "kid-1", valid())},
		{"unknown kid", sign(t, privateKey, "kid-2", valid())},
		{"algorithm outside allow-list", signWith(t, jwt.SigningMethodPS256, privateKey, "kid-1", valid())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := validator.Validate(context.Background(), tt.token)
			assert.Nil(t, principal)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	// the untampered token is accepted
	principal, err := validator.Validate(context.Background(), sign(t, privateKey, "kid-1", valid()))
	require.NoError(t, err)
	assert.Equal(t, "object-id-1", principal.SubjectID)
}
