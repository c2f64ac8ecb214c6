// Package common defines shared constants and sentinel errors used across
// server and client layers of bankapi. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound           = errors.New("not found")
	ErrorLoginAlreadyExists = errors.New("login already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Transfer errors. None of them leaves a partial mutation behind.
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorUnknownAccount    = errors.New("unknown account")
	ErrorInvalidAmount     = errors.New("invalid amount")
	ErrorSelfTransfer      = errors.New("self transfer")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)
