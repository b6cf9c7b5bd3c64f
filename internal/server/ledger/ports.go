package ledger

import (
	"context"

	"github.com/holiman/uint256"
)

// Custody is the external asset registry that holds item ownership.
type Custody interface {
	OwnerOf(ctx context.Context, itemID string) (string, error)
	// Transfer fails if from does not currently hold the item.
	Transfer(ctx context.Context, itemID, from, to string) error
}

// Treasury is the external value-transfer service. Transfer pays out of the
// ledger's operating account.
type Treasury interface {
	Transfer(ctx context.Context, to string, amount *uint256.Int) error
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
}

// Locker excludes other replicas from the given item keys until release is
// called.
type Locker interface {
	Lock(ctx context.Context, keys []string) (release func(), err error)
}

// Principal is the authenticated party behind an administrative call.
type Principal struct {
	ID    string
	Admin bool
}
