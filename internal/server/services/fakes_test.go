package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/cryptox"
	"github.com/dmitrijs2005/bankapi/internal/dbx"
	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/dmitrijs2005/bankapi/internal/server/repositories/users"
	"github.com/dmitrijs2005/bankapi/internal/server/revocation"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memUsers is an in-memory users.Repository. Per-login error hooks let
// tests fail individual calls.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int64

	createErr error
	getErr    error
	lockErr   map[string]error
	applyErr  map[string]error

	locked []string
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*models.User{}, lockErr: map[string]error{}, applyErr: map[string]error{}}
}

func (m *memUsers) put(login string, balance string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.users[login] = &models.User{ID: m.seq, Login: login, Role: models.RoleUser, Balance: decimal.RequireFromString(balance)}
}

func (m *memUsers) balanceOf(login string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[login].Balance
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.users[u.Login]; ok {
		return nil, common.ErrorLoginAlreadyExists
	}
	m.seq++
	cp := *u
	cp.ID = m.seq
	cp.CreatedAt = time.Now()
	m.users[u.Login] = &cp
	return &cp, nil
}

func (m *memUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetBalance(_ context.Context, login string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return decimal.Zero, m.getErr
	}
	u, ok := m.users[login]
	if !ok {
		return decimal.Zero, common.ErrorNotFound
	}
	return u.Balance, nil
}

func (m *memUsers) LockBalance(_ context.Context, login string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = append(m.locked, login)
	if err := m.lockErr[login]; err != nil {
		return decimal.Zero, err
	}
	u, ok := m.users[login]
	if !ok {
		return decimal.Zero, common.ErrorNotFound
	}
	return u.Balance, nil
}

func (m *memUsers) ApplyBalanceDelta(_ context.Context, login string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.applyErr[login]; err != nil {
		return err
	}
	u, ok := m.users[login]
	if !ok {
		return common.ErrorNotFound
	}
	u.Balance = u.Balance.Add(delta)
	return nil
}

type fakeRM struct {
	users *memUsers
}

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRM) Users(dbx.DBTX) users.Repository              { return f.users }

type userServiceFixture struct {
	svc     *UserService
	users   *memUsers
	tokens  *auth.TokenService
	revoked *revocation.MemoryStore
	clock   *clockwork.FakeClock
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	mem := newMemUsers()
	tokens := auth.NewTokenService([]byte("k"), 30*time.Minute, clock)
	revoked := revocation.NewMemoryStore(clock)
	svc := NewUserService(nil, &fakeRM{users: mem}, tokens, cryptox.NewHasher(bcrypt.MinCost), revoked, logging.NewNop())
	return &userServiceFixture{svc: svc, users: mem, tokens: tokens, revoked: revoked, clock: clock}
}
