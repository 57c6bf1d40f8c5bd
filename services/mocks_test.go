package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/upb/enrollment-auth/models"
	"github.com/upb/enrollment-auth/repositories"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// fakeTxManager runs functions directly and records the outcome
type fakeTxManager struct {
	commits   int
	rollbacks int
}

func (f *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{ctx: ctx, mgr: f}, nil
}

func (f *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return WithTransaction(ctx, f, fn)
}

type fakeTx struct {
	ctx context.Context
	mgr *fakeTxManager
}

func (t *fakeTx) Commit() error {
	t.mgr.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.mgr.rollbacks++
	return nil
}

func (t *fakeTx) Context() context.Context {
	return t.ctx
}
