// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/stakeledger/internal/dbx"
	"github.com/dmitrijs2005/stakeledger/internal/server/migrations"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/ledgerstate"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/stakes"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Stakes returns a stakes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Stakes(db dbx.DBTX) stakes.Repository {
	return stakes.NewPostgresRepository(db)
}

// LedgerState returns a ledgerstate.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) LedgerState(db dbx.DBTX) ledgerstate.Repository {
	return ledgerstate.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
