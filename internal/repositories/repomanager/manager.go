// Package repomanager vends repositories bound to a database handle and runs
// schema migrations for the configured dialect.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Tokens(db dbx.DBTX) tokens.Repository
}
