// Package models holds the server-side domain records.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authority granted to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a row of the users table. Login never changes after creation and
// Balance is never negative.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
