package models

import "github.com/shopspring/decimal"

// BalanceScale is the number of fractional digits stored for balances.
const BalanceScale = 4

// TransferRequest asks to move Amount from the caller to RecipientLogin.
type TransferRequest struct {
	RecipientLogin string          `json:"recipientLogin"`
	Amount         decimal.Decimal `json:"amount"`
}
