package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Store         StoreConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	CORS          CORSConfig

	// PlatformPort is the PORT variable set by hosting platforms; it wins over SERVER_PORT
	PlatformPort int `env:"PORT"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StoreConfig selects and configures the user store
type StoreConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	Postgres DatabaseConfig
	SQLite   SQLiteConfig
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string        `env:"DATABASE_URL"`
	Host             string        `env:"DB_HOST"`
	Port             int           `env:"DB_PORT" envDefault:"5432"`
	User             string        `env:"DB_USER"`
	Password         string        `env:"DB_PASSWORD"`
	Database         string        `env:"DB_NAME"`
	SSLMode          string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// SQLiteConfig holds the embedded store location
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"enrollment.db"`
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	SecretKey  string        `env:"JWT_SECRET_KEY"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"StudentCourseEnrollment"`
	Audience   string        `env:"JWT_AUDIENCE" envDefault:"StudentCourseEnrollment"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
	EntraID    EntraIDConfig
}

// EntraIDConfig holds the external identity authority settings
type EntraIDConfig struct {
	Instance string `env:"ENTRA_ID_INSTANCE"`
	TenantID string `env:"ENTRA_ID_TENANT_ID"`
	JWKSURL  string `env:"ENTRA_ID_JWKS_URL"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://localhost:5001,http://localhost:5000"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.PlatformPort > 0 {
		cfg.Server.Port = cfg.PlatformPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverPostgres:
		db := c.Store.Postgres
		if db.ConnectionString == "" && db.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if db.ConnectionString == "" {
			if db.User == "" {
				return fmt.Errorf("database user is required")
			}
			if db.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Store.Driver)
	}

	if c.Auth.BcryptCost < 0 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 0 and 31")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsDevelopment returns true if running in development environment.
// The comparison ignores case, so ASP.NET style names like Development match.
func (c *Config) IsDevelopment() bool {
	for _, name := range []string{"development", "dev", "local"} {
		if strings.EqualFold(strings.TrimSpace(c.Environment), name) {
			return true
		}
	}
	return false
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
