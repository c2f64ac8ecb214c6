// Package users declares the credential store: user records with their
// password hashes, roles and balances.
package users

import (
	"context"

	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/shopspring/decimal"
)

// Repository is the credential store contract. Lookups return
// common.ErrorNotFound for a missing login; every other failure is a
// storage error.
type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A taken login
	// yields common.ErrorLoginAlreadyExists and stores nothing.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the full record for login.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// GetBalance reads the current balance without locking.
	GetBalance(ctx context.Context, login string) (decimal.Decimal, error)

	// LockBalance reads the balance and holds a row lock until the
	// surrounding transaction ends. It must run inside a transaction.
	LockBalance(ctx context.Context, login string) (decimal.Decimal, error)

	// ApplyBalanceDelta adds delta (possibly negative) to the balance.
	ApplyBalanceDelta(ctx context.Context, login string, delta decimal.Decimal) error
}
