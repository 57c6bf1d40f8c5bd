package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/enrollment-auth/config"
	"github.com/upb/enrollment-auth/repositories"
	"github.com/upb/enrollment-auth/repositories/sqltx"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	*DB
	logger *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{DB: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     NewUserRepository(f.DB, f.logger),
		TxManager: sqltx.NewTransactionManager(f.DB.DB, f.logger),
	}
}
var _ repositories.Store = (*RepositoryFactory)(nil)
