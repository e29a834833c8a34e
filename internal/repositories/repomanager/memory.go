package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
)

// InMemoryRepositoryManager hands out the same in-memory repository for any
// handle; there is no schema to migrate.
type InMemoryRepositoryManager struct {
	tokens *tokens.InMemoryRepository
}

func NewInMemoryRepositoryManager(repo *tokens.InMemoryRepository) *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{tokens: repo}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository {
	return m.tokens
}
