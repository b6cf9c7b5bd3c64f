package ledgerstate

import (
	"context"

	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// Repository reads and writes the single global state row.
type Repository interface {
	Get(ctx context.Context) (*models.LedgerState, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context) (*models.LedgerState, error)
	Save(ctx context.Context, st models.LedgerState) error
}
