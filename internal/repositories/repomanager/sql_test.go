package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var m RepositoryManager = NewSQLRepositoryManager(dbx.Postgres)

	repo := m.Tokens(db)
	if repo == nil {
		t.Fatal("Tokens() nil")
	}
	if _, ok := repo.(*tokens.SQLRepository); !ok {
		t.Fatalf("Tokens() = %T, want *tokens.SQLRepository", repo)
	}
}

func TestInMemoryManager_ReturnsSharedRepo(t *testing.T) {
	repo := tokens.NewInMemoryRepository(time.Now)
	var m RepositoryManager = NewInMemoryRepositoryManager(repo)

	require.Same(t, repo, m.Tokens(nil))
	require.NoError(t, m.RunMigrations(context.Background(), nil))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	for _, d := range []dbx.Dialect{dbx.MySQL, dbx.Postgres, dbx.SQLite} {
		m := NewSQLRepositoryManager(d)
		if err := m.RunMigrations(context.Background(), db); err != nil {
			t.Fatalf("RunMigrations(%s) error: %v", d.Name, err)
		}
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewSQLRepositoryManager(dbx.MySQL)
	err := m.RunMigrations(context.Background(), db)

	var qe *common.QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, "migrate", qe.Op)
	require.EqualError(t, qe.Err, "boom")
}

func TestRunMigrations_SQLite_CreatesTokensTable(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	defer db.Close()

	m := NewSQLRepositoryManager(dbx.SQLite)
	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.RunMigrations(ctx, db), "migrations must be idempotent")

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tokens'`).Scan(&n))
	require.Equal(t, 1, n)
}
