package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/keycloak-gateway/models"
)

var (
	// ErrAccountNotFound is returned by lookups keyed on a primary identifier
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when an account with the same email already exists
	ErrAccountExists = errors.New("account already exists")
)

// AccountLookup is the read-only view of the account store used during authentication
type AccountLookup interface {
	// FindOneByEmail returns the account with exactly this email, or nil when none exists
	FindOneByEmail(ctx context.Context, email string) (*models.Account, error)
}

// AccountRepository handles account data operations
type AccountRepository interface {
	AccountLookup

	// Create creates a new account
	Create(ctx context.Context, account *models.Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)

	// Delete deletes an account
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Accounts AccountRepository
}
