package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/upb/enrollment-auth/models"
)

var (
	// ErrNotFound is returned when a lookup matches no record
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user with the same email already exists
	ErrDuplicateEmail = errors.New("email already registered")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction.
	// Repositories called with it join the transaction.
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by exact email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail reports whether a user with email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	TxManager TransactionManager
}

// Store is a backing database that can hand out repositories
type Store interface {
	// NewRepositories creates all repository instances
	NewRepositories() *Repositories

	// InitSchema creates the tables if they do not exist
	InitSchema(ctx context.Context) error

	// HealthCheck verifies the store is reachable
	HealthCheck(ctx context.Context) error

	// Close releases the underlying connections
	Close() error
}
