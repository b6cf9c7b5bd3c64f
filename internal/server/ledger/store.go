package ledger

import (
	"context"

	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// Records is the view of ledger state available inside a unit of work.
type Records interface {
	// Get reports found=false when the item is not deposited.
	Get(ctx context.Context, itemID string) (stake models.Stake, found bool, err error)
	Insert(ctx context.Context, stake models.Stake) error
	// Touch resets the accrual clock of a deposited item.
	Touch(ctx context.Context, itemID string, at int64) error
	Delete(ctx context.Context, itemID string) error
	ByHolder(ctx context.Context, holder string) ([]models.Stake, error)
	All(ctx context.Context) ([]models.Stake, error)
	Count(ctx context.Context) (uint64, error)
	State(ctx context.Context) (models.LedgerState, error)
	SaveState(ctx context.Context, st models.LedgerState) error
}

// Store runs units of work. Update commits only if fn returns nil; View is
// read-only.
type Store interface {
	Update(ctx context.Context, fn func(ctx context.Context, r Records) error) error
	View(ctx context.Context, fn func(ctx context.Context, r Records) error) error
}
