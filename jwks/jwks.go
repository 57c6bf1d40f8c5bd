// Package jwks loads and refreshes an identity provider's published signing keys.
package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrURLRequired is returned when Get is called without a key set URL
var ErrURLRequired = errors.New("jwks url is required")

// Options controls background refresh of a remote key set
type Options struct {
	RefreshInterval  time.Duration
	RefreshRateLimit time.Duration
	RefreshTimeout   time.Duration
	HTTPClient       *http.Client
}

// DefaultOptions refreshes hourly and on unknown key IDs, at most every five minutes
func DefaultOptions() Options {
	return Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: 5 * time.Minute,
		RefreshTimeout:   10 * time.Second,
	}
}

// KeySet resolves token signing keys by key ID
type KeySet struct {
	keys       *keyfunc.JWKS
	background bool
}

// Get fetches the key set at url and keeps it fresh until ctx is done or Close is called
func Get(ctx context.Context, url string, opts Options, logger *zap.Logger) (*KeySet, error) {
	if url == "" {
		return nil, ErrURLRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	keys, err := keyfunc.Get(url, keyfunc.Options{
		Ctx:    ctx,
		Client: opts.HTTPClient,
		RefreshErrorHandler: func(err error) {
			logger.Warn("Failed to refresh signing keys",
				zap.String("url", url),
				zap.Error(err),
			)
		},
		RefreshInterval:   opts.RefreshInterval,
		RefreshRateLimit:  opts.RefreshRateLimit,
		RefreshTimeout:    opts.RefreshTimeout,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching signing keys from %s: %w", url, err)
	}

	logger.Info("Signing keys loaded",
		zap.String("url", url),
		zap.Int("keys", keys.Len()),
	)

	return &KeySet{keys: keys, background: true}, nil
}

// FromJSON builds a static key set from a JWKS document
func FromJSON(raw json.RawMessage) (*KeySet, error) {
	keys, err := keyfunc.NewJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing signing keys: %w", err)
	}
	return &KeySet{keys: keys}, nil
}

// Keyfunc resolves the verification key for token
func (k *KeySet) Keyfunc(token *jwt.Token) (interface{}, error) {
	return k.keys.Keyfunc(token)
}

// KIDs returns the key IDs currently held
func (k *KeySet) KIDs() []string {
	return k.keys.KIDs()
}

// Close stops background refresh
func (k *KeySet) Close() {
	if k.background {
		k.keys.EndBackground()
	}
}
