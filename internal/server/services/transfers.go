package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/dbx"
	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/dmitrijs2005/bankapi/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// TransferService moves funds between two accounts in a single transaction.
type TransferService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	log         logging.Logger
}

func NewTransferService(db *sql.DB, m repomanager.RepositoryManager, timeout time.Duration, log logging.Logger) *TransferService {
	return &TransferService{
		db:          db,
		repomanager: m,
		timeout:     timeout,
		log:         log.With("module", "transfers"),
	}
}

// ValidateAmount accepts strictly positive amounts representable at the
// storage scale.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return common.ErrorInvalidAmount
	}
	if !amount.Equal(amount.Truncate(models.BalanceScale)) {
		return common.ErrorInvalidAmount
	}
	return nil
}

// Transfer debits sender and credits recipient by amount, or changes nothing.
// Both rows are locked in login order, so transfers in opposite directions
// between the same pair serialize instead of deadlocking.
func (s *TransferService) Transfer(ctx context.Context, sender, recipient string, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if sender == "" || recipient == "" {
		return common.ErrorUnknownAccount
	}
	if sender == recipient {
		return common.ErrorSelfTransfer
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		balances := make(map[string]decimal.Decimal, 2)
		for _, login := range lockOrder(sender, recipient) {
			b, err := repo.LockBalance(ctx, login)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrorUnknownAccount
				}
				return err
			}
			balances[login] = b
		}

		if balances[sender].LessThan(amount) {
			return common.ErrorInsufficientFunds
		}

		if err := repo.ApplyBalanceDelta(ctx, sender, amount.Neg()); err != nil {
			return notFoundAsUnknown(err)
		}
		if err := repo.ApplyBalanceDelta(ctx, recipient, amount); err != nil {
			return notFoundAsUnknown(err)
		}
		return nil
	})

	switch {
	case err == nil:
		s.log.Info(ctx, "transfer completed", "from", sender, "to", recipient, "amount", amount.String())
		return nil
	case errors.Is(err, common.ErrorUnknownAccount), errors.Is(err, common.ErrorInsufficientFunds):
		return err
	default:
		s.log.Error(ctx, "transfer failed", "from", sender, "to", recipient, "error", err)
		return common.ErrorInternal
	}
}

func lockOrder(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func notFoundAsUnknown(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorUnknownAccount
	}
	return err
}
