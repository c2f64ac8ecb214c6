package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bankapi/internal/dbx"
	"github.com/dmitrijs2005/bankapi/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
