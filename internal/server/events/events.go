// Package events defines the notifications emitted by the ledger and the
// sinks that deliver them: a local SQLite journal, Kafka and in-memory
// recorders.
package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Kind string

const (
	KindDeposited     Kind = "deposited"
	KindWithdrawn     Kind = "withdrawn"
	KindRewardClaimed Kind = "reward_claimed"
)

// Event is one ledger notification. ItemID is empty for reward claims and
// Amount (a decimal string) is empty for custody events.
type Event struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Holder    string `json:"holder"`
	ItemID    string `json:"item_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func Deposited(holder, itemID string, ts int64) Event {
	return Event{ID: uuid.NewString(), Kind: KindDeposited, Holder: holder, ItemID: itemID, Timestamp: ts}
}

func Withdrawn(holder, itemID string, ts int64) Event {
	return Event{ID: uuid.NewString(), Kind: KindWithdrawn, Holder: holder, ItemID: itemID, Timestamp: ts}
}

func RewardClaimed(holder, amount string, ts int64) Event {
	return Event{ID: uuid.NewString(), Kind: KindRewardClaimed, Holder: holder, Amount: amount, Timestamp: ts}
}

// Publisher delivers a batch of events produced by one committed operation.
type Publisher interface {
	Publish(ctx context.Context, evs []Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evs []Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
