// Package services contains server-side business logic: registration and
// sign-in, request authentication, balances and transfers.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/cryptox"
	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/dmitrijs2005/bankapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bankapi/internal/server/revocation"
	"github.com/shopspring/decimal"
)

// UserService provides authentication-related operations:
// - Register: create users
// - SignIn: verify credentials and issue a bearer token
// - Authenticate: resolve a bearer token to a Principal
// - SignOut: revoke the token of the current principal
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *cryptox.Hasher
	revoked     revocation.Store
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	hasher *cryptox.Hasher, revoked revocation.Store, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		revoked:     revoked,
		log:         log.With("module", "users"),
	}
}

// Register creates a USER account with a zero balance.
func (s *UserService) Register(ctx context.Context, login, password string) (*models.User, error) {
	return s.create(ctx, login, password, models.RoleUser, decimal.Zero)
}

func (s *UserService) create(ctx context.Context, login, password string, role models.Role, balance decimal.Decimal) (*models.User, error) {
	if login == "" || password == "" || !role.Valid() {
		return nil, common.ErrorValidation
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		s.log.Error(ctx, "hash password", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{Login: login, PasswordHash: hash, Role: role, Balance: balance}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorLoginAlreadyExists) {
			return nil, err
		}
		s.log.Error(ctx, "create user", "login", login, "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// SignIn checks the credentials and returns a freshly issued token. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *UserService) SignIn(ctx context.Context, login, password string) (string, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(pw)
			return "", common.ErrorUnauthorized
		}
		s.log.Error(ctx, "lookup user", "login", login, "error", err)
		return "", common.ErrorInternal
	}

	if err := s.hasher.Compare(user.PasswordHash, pw); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return "", common.ErrorUnauthorized
		}
		s.log.Error(ctx, "compare password", "login", login, "error", err)
		return "", common.ErrorInternal
	}

	token, err := s.tokens.Issue(user.Login, user.Role)
	if err != nil {
		s.log.Error(ctx, "issue token", "login", login, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate validates token and resolves its subject. The role is taken
// from the stored user, not from the token.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error(ctx, "revocation lookup", "error", err)
		return auth.Principal{}, common.ErrorInternal
	}
	if revoked {
		return auth.Principal{}, common.ErrTokenRevoked
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Principal{}, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "lookup principal", "login", claims.Subject, "error", err)
		return auth.Principal{}, common.ErrorInternal
	}

	p := auth.Principal{Login: user.Login, Role: user.Role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// SignOut revokes the token p was authenticated with for the rest of its
// lifetime.
func (s *UserService) SignOut(ctx context.Context, p auth.Principal) error {
	if p.TokenID == "" {
		return common.ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, s.tokens.Remaining(p.ExpiresAt)); err != nil {
		s.log.Error(ctx, "revoke token", "login", p.Login, "error", err)
		return common.ErrorInternal
	}
	return nil
}

// Balance returns the current balance of login.
func (s *UserService) Balance(ctx context.Context, login string) (decimal.Decimal, error) {
	b, err := s.repomanager.Users(s.db).GetBalance(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return decimal.Zero, common.ErrorUnknownAccount
		}
		s.log.Error(ctx, "read balance", "login", login, "error", err)
		return decimal.Zero, common.ErrorInternal
	}
	return b, nil
}
