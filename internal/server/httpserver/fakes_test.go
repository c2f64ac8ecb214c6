package httpserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/logging"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/metrics"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/shopspring/decimal"
)

type fakeUsers struct {
	mu sync.Mutex

	registered map[string]string
	tokens     map[string]auth.Principal
	balances   map[string]decimal.Decimal

	authCalls  int
	signInErr  error
	balanceErr error
	signOutErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		registered: map[string]string{},
		tokens:     map[string]auth.Principal{},
		balances:   map[string]decimal.Decimal{},
	}
}

func (f *fakeUsers) Register(_ context.Context, login, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if login == "" || password == "" {
		return nil, common.ErrorValidation
	}
	if _, ok := f.registered[login]; ok {
		return nil, common.ErrorLoginAlreadyExists
	}
	f.registered[login] = password
	return &models.User{Login: login, Role: models.RoleUser}, nil
}

func (f *fakeUsers) SignIn(_ context.Context, login, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return "", f.signInErr
	}
	if pw, ok := f.registered[login]; !ok || pw != password {
		return "", common.ErrorUnauthorized
	}
	tok := "hdr.payload-" + login + ".sig"
	f.tokens[tok] = auth.Principal{Login: login, Role: models.RoleUser, TokenID: "jti-" + login}
	return tok, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (auth.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	p, ok := f.tokens[token]
	if !ok {
		return auth.Principal{}, common.ErrInvalidToken
	}
	return p, nil
}

func (f *fakeUsers) SignOut(_ context.Context, p auth.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signOutErr != nil {
		return f.signOutErr
	}
	for tok, q := range f.tokens {
		if q.TokenID == p.TokenID {
			delete(f.tokens, tok)
		}
	}
	return nil
}

func (f *fakeUsers) Balance(_ context.Context, login string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	b, ok := f.balances[login]
	if !ok {
		return decimal.Zero, common.ErrorUnknownAccount
	}
	return b, nil
}

type transferCall struct {
	sender, recipient string
	amount            decimal.Decimal
}

type fakeTransfers struct {
	mu    sync.Mutex
	calls []transferCall
	err   error
}

func (f *fakeTransfers) Transfer(_ context.Context, sender, recipient string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transferCall{sender, recipient, amount})
	return f.err
}

var errBoom = errors.New("boom")

func newTestServer(t *testing.T, us Users, ts Transfers, limiter *RateLimiter) (*HTTPServer, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewHTTPServer("127.0.0.1:0", logging.NewNop(), us, ts, m, limiter, time.Second), m
}
