package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/upb/enrollment-auth/auth"
	"github.com/upb/enrollment-auth/config"
	"github.com/upb/enrollment-auth/handlers"
	"github.com/upb/enrollment-auth/jwks"
	"github.com/upb/enrollment-auth/middleware"
	"github.com/upb/enrollment-auth/repositories"
	"github.com/upb/enrollment-auth/repositories/postgres"
	"github.com/upb/enrollment-auth/repositories/sqlite"
	"github.com/upb/enrollment-auth/services"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Store  repositories.Store

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Auth
	Settings  auth.Settings
	KeySet    *jwks.KeySet
	Hasher    *auth.BcryptHasher
	Issuer    *auth.TokenIssuer
	Validator *auth.Validator

	// Services
	Authenticator *services.Authenticator
	Provisioner   *services.Provisioner

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := deps.initAuth(ctx, cfg); err != nil {
		_ = deps.Store.Close()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStore opens the configured store, creates the schema and builds repositories
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	var store repositories.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		factory, err := postgres.NewRepositoryFactory(ctx, cfg.Store.Postgres, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		store = factory
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Store.SQLite.Path, d.Logger)
		if err != nil {
			return err
		}
		store = s
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos := store.NewRepositories()
	d.Store = store
	d.Users = repos.Users
	d.TxManager = repos.TxManager

	d.Logger.Info("repositories initialized", zap.String("driver", cfg.Store.Driver))
	return nil
}

// initAuth resolves the trust mode once and builds the issuer and validator
func (d *Dependencies) initAuth(ctx context.Context, cfg *config.Config) error {
	d.Settings = auth.NewSettings(auth.SettingsInput{
		Development: cfg.IsDevelopment(),
		SecretKey:   cfg.Auth.SecretKey,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		Instance:    cfg.Auth.EntraID.Instance,
		TenantID:    cfg.Auth.EntraID.TenantID,
		JWKSURL:     cfg.Auth.EntraID.JWKSURL,
		TokenTTL:    cfg.Auth.TokenTTL,
	})

	d.Logger.Info("auth mode selected",
		zap.Stringer("mode", d.Settings.Mode()),
		zap.String("issuer", d.Settings.Issuer()),
		zap.String("audience", d.Settings.Audience()),
		zap.String("authority", d.Settings.Authority()),
		zap.Duration("token_ttl", d.Settings.TokenTTL()))
	if d.Settings.UsingDefaultKey() {
		d.Logger.Warn("JWT_SECRET_KEY not set, using the built-in development signing key")
	}

	var keys jwt.Keyfunc
	if d.Settings.Mode() == auth.ModeExternalAuthority {
		keySet, err := jwks.Get(ctx, d.Settings.JWKSURL(), jwks.DefaultOptions(), d.Logger)
		if err != nil {
			return err
		}
		d.KeySet = keySet
		keys = keySet.Keyfunc
	}

	validator, err := auth.NewValidator(d.Settings, keys)
	if err != nil {
		d.closeKeySet()
		return fmt.Errorf("failed to create token validator: %w", err)
	}

	d.Validator = validator
	d.Issuer = auth.NewTokenIssuer(d.Settings)
	d.Hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	return nil
}

// initServices builds the services and HTTP components on top of store and auth
func (d *Dependencies) initServices() {
	d.Authenticator = services.NewAuthenticator(d.Users, d.TxManager, d.Hasher, d.Issuer, d.Logger)
	d.Provisioner = services.NewProvisioner(d.Users, d.TxManager, d.Logger)

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Validator, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.Authenticator, d.Provisioner, d.Users, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Store, d.Logger)
}

func (d *Dependencies) closeKeySet() {
	if d.KeySet != nil {
		d.KeySet.Close()
		d.KeySet = nil
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	d.closeKeySet()

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
