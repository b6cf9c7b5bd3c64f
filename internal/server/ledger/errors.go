package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the ledger. Match them with errors.Is.
var (
	ErrNotOwner           = errors.New("caller does not hold the item")
	ErrAlreadyStaked      = errors.New("item already staked")
	ErrNoRewards          = errors.New("no rewards to harvest")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrExternalService    = errors.New("external service failure")
	ErrReentrantCall      = errors.New("reentrant call rejected")
	ErrEmptyBatch         = errors.New("empty batch")
	ErrDuplicateItem      = errors.New("duplicate item in batch")
	ErrInvalidItem        = errors.New("invalid item id")
	ErrUnauthorized       = errors.New("administrator privilege required")
)

// externalErr tags a collaborator failure so it matches ErrExternalService
// while keeping the original cause reachable.
func externalErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrExternalService, err)
}

func itemErr(itemID string, err error) error {
	return fmt.Errorf("item %s: %w", itemID, err)
}
