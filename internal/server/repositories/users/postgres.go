package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/dbx"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/shopspring/decimal"
)

// PostgresRepository implements Repository over dbx.DBTX, so the same code
// runs against *sql.DB or inside a *sql.Tx.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (login, password, role, balance)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (login) DO NOTHING
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Login, user.PasswordHash, string(user.Role), user.Balance).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorLoginAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	query :=
		`SELECT id, login, password, role, balance, created_at FROM users
		 WHERE login = $1`

	user := &models.User{}
	var role string
	err := r.db.QueryRowContext(ctx, query, login).
		Scan(&user.ID, &user.Login, &user.PasswordHash, &role, &user.Balance, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Role = models.Role(role)

	return user, nil
}

func (r *PostgresRepository) GetBalance(ctx context.Context, login string) (decimal.Decimal, error) {
	return r.balance(ctx, `SELECT balance FROM users WHERE login = $1`, login)
}

func (r *PostgresRepository) LockBalance(ctx context.Context, login string) (decimal.Decimal, error) {
	return r.balance(ctx, `SELECT balance FROM users WHERE login = $1 FOR UPDATE`, login)
}

func (r *PostgresRepository) balance(ctx context.Context, query, login string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, login).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrorNotFound
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

func (r *PostgresRepository) ApplyBalanceDelta(ctx context.Context, login string, delta decimal.Decimal) error {
	query :=
		`UPDATE users SET balance = balance + $2
		 WHERE login = $1`

	res, err := r.db.ExecContext(ctx, query, login, delta)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
