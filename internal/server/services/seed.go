package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/server/config"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/shopspring/decimal"
)

// SeedUser is an account created at startup if its login is free.
type SeedUser struct {
	Login    string
	Password string
	Role     models.Role
	Balance  decimal.Decimal
}

// SeedUsers lists the startup accounts for cfg: the configured admin and,
// when enabled, two demo users.
func SeedUsers(cfg *config.Config) []SeedUser {
	var out []SeedUser
	if cfg.AdminLogin != "" && cfg.AdminPassword != "" {
		out = append(out, SeedUser{
			Login: cfg.AdminLogin, Password: cfg.AdminPassword,
			Role: models.RoleAdmin, Balance: decimal.NewFromInt(500_000),
		})
	}
	if cfg.SeedDemoUsers {
		out = append(out,
			SeedUser{Login: "user1", Password: "user1password", Role: models.RoleUser, Balance: decimal.NewFromInt(250_000)},
			SeedUser{Login: "user2", Password: "user2password", Role: models.RoleUser, Balance: decimal.NewFromInt(150_000)},
		)
	}
	return out
}

// Seed creates the given accounts, skipping logins that already exist. It
// returns the number of accounts created.
func (s *UserService) Seed(ctx context.Context, users []SeedUser) (int, error) {
	created := 0
	for _, u := range users {
		_, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, u.Login)
		if err == nil {
			s.log.Info(ctx, "seed user exists, skipping", "login", u.Login)
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return created, err
		}

		if _, err := s.create(ctx, u.Login, u.Password, u.Role, u.Balance); err != nil {
			if errors.Is(err, common.ErrorLoginAlreadyExists) {
				continue
			}
			return created, err
		}
		created++
		s.log.Info(ctx, "seed user created", "login", u.Login, "role", string(u.Role))
	}
	return created, nil
}
