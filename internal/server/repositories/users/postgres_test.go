package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/shopspring/decimal"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ  = `(?s)^INSERT\s+INTO\s+users\s*\(login,\s*password,\s*role,\s*balance\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(login\)\s*DO\s+NOTHING\s*RETURNING\s+id,\s*created_at\s*$`
	selectQ  = `(?s)^SELECT\s+id,\s*login,\s*password,\s*role,\s*balance,\s*created_at\s+FROM\s+users\s+WHERE\s+login\s*=\s*\$1\s*$`
	balanceQ = `(?s)^SELECT\s+balance\s+FROM\s+users\s+WHERE\s+login\s*=\s*\$1$`
	lockQ    = `(?s)^SELECT\s+balance\s+FROM\s+users\s+WHERE\s+login\s*=\s*\$1\s+FOR\s+UPDATE$`
	updateQ  = `(?s)^UPDATE\s+users\s+SET\s+balance\s*=\s*balance\s*\+\s*\$2\s+WHERE\s+login\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now)
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "USER", decimal.Zero).
		WillReturnRows(rows)

	u := &models.User{Login: "alice", PasswordHash: "hash", Role: models.RoleUser, Balance: decimal.Zero}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Login != "alice" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_LoginTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "USER", decimal.Zero).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	_, err := repo.Create(context.Background(), &models.User{Login: "alice", PasswordHash: "hash", Role: models.RoleUser})
	if !errors.Is(err, common.ErrorLoginAlreadyExists) {
		t.Fatalf("expected ErrorLoginAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "ADMIN", decimal.NewFromInt(500000)).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{
		Login: "alice", PasswordHash: "hash", Role: models.RoleAdmin, Balance: decimal.NewFromInt(500000),
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "login", "password", "role", "balance", "created_at"}).
		AddRow(int64(7), "alice", "hash", "ADMIN", "15000.0000", now)
	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.ID != 7 || got.Login != "alice" || got.Role != models.RoleAdmin {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.Balance.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected balance: %s", got.Balance)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetUserByLogin_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetBalance(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(balanceQ).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("12666.5060"))

	got, err := repo.GetBalance(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetBalance error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("12666.506")) {
		t.Fatalf("unexpected balance: %s", got)
	}
}

func TestGetBalance_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(balanceQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBalance(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestLockBalance_UsesForUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(lockQ).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("5000"))

	got, err := repo.LockBalance(context.Background(), "bob")
	if err != nil {
		t.Fatalf("LockBalance error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected balance: %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLockBalance_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(lockQ).
		WithArgs("bob").
		WillReturnError(errors.New("lock timeout"))

	_, err := repo.LockBalance(context.Background(), "bob")
	if err == nil || !regexp.MustCompile(`db error: .*lock timeout`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestApplyBalanceDelta_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	delta := decimal.RequireFromString("-2333.494")
	mock.ExpectExec(updateQ).
		WithArgs("alice", delta).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ApplyBalanceDelta(context.Background(), "alice", delta); err != nil {
		t.Fatalf("ApplyBalanceDelta error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyBalanceDelta_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).
		WithArgs("ghost", decimal.NewFromInt(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyBalanceDelta(context.Background(), "ghost", decimal.NewFromInt(1))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestApplyBalanceDelta_ExecError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).
		WithArgs("alice", decimal.NewFromInt(1)).
		WillReturnError(errors.New("check constraint"))

	err := repo.ApplyBalanceDelta(context.Background(), "alice", decimal.NewFromInt(1))
	if err == nil || !regexp.MustCompile(`db error: .*check constraint`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestApplyBalanceDelta_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).
		WithArgs("alice", decimal.NewFromInt(1)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	err := repo.ApplyBalanceDelta(context.Background(), "alice", decimal.NewFromInt(1))
	if err == nil || !regexp.MustCompile(`db error: .*no count`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
