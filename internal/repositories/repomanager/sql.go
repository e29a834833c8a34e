package repomanager

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/migrations"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repositories for one dialect and
// applies that dialect's embedded migrations.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// NewSQLRepositoryManager constructs a manager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the migrations under the dialect's directory.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	dir, err := fs.Sub(migrations.Migrations, m.dialect.Name)
	if err != nil {
		return &common.QueryError{Op: "migrate", Err: err}
	}
	goose.SetBaseFS(dir)
	if err := goose.SetDialect(m.dialect.GooseDialect); err != nil {
		return &common.QueryError{Op: "migrate", Err: err}
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return &common.QueryError{Op: "migrate", Err: err}
	}
	return nil
}
