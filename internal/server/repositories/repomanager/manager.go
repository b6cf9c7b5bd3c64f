package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/stakeledger/internal/dbx"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/ledgerstate"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/stakes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Stakes(db dbx.DBTX) stakes.Repository
	LedgerState(db dbx.DBTX) ledgerstate.Repository
}
