package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/dmitrijs2005/stakeledger/internal/server/events"
)

const (
	vault     = "vault"
	operating = "operating"
)

type fakeClock struct{ t int64 }

func (c *fakeClock) now() int64 { return c.t }

type fakeCustody struct {
	mu     sync.Mutex
	owners map[string]string
	// failOn makes Transfer of that item fail.
	failOn   string
	ownerErr error
	// onTransfer runs before each transfer with the ctx handed to custody.
	onTransfer func(ctx context.Context, itemID string)
	transfers  int
}

func newFakeCustody(owners map[string]string) *fakeCustody {
	return &fakeCustody{owners: owners}
}

func (c *fakeCustody) OwnerOf(_ context.Context, itemID string) (string, error) {
	if c.ownerErr != nil {
		return "", c.ownerErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owners[itemID], nil
}

func (c *fakeCustody) Transfer(ctx context.Context, itemID, from, to string) error {
	if c.onTransfer != nil {
		c.onTransfer(ctx, itemID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if itemID == c.failOn {
		return errors.New("registry unavailable")
	}
	if c.owners[itemID] != from {
		return fmt.Errorf("%s not held by %s", itemID, from)
	}
	c.owners[itemID] = to
	c.transfers++
	return nil
}

func (c *fakeCustody) owner(itemID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owners[itemID]
}

type fakeTreasury struct {
	mu       sync.Mutex
	balances map[string]*uint256.Int
	fail     bool
}

func newFakeTreasury(funds uint64) *fakeTreasury {
	return &fakeTreasury{balances: map[string]*uint256.Int{operating: uint256.NewInt(funds)}}
}

func (t *fakeTreasury) Transfer(_ context.Context, to string, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return errors.New("treasury unavailable")
	}
	src := t.balances[operating]
	if src.Lt(amount) {
		return errors.New("insufficient funds")
	}
	src.Sub(src, amount)
	dst, ok := t.balances[to]
	if !ok {
		dst = new(uint256.Int)
		t.balances[to] = dst
	}
	dst.Add(dst, amount)
	return nil
}

func (t *fakeTreasury) BalanceOf(_ context.Context, account string) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.balances[account]; ok {
		return b.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (t *fakeTreasury) balance(account string) uint64 {
	b, _ := t.BalanceOf(context.Background(), account)
	return b.Uint64()
}

type countingPublisher struct {
	mu  sync.Mutex
	evs []events.Event
	err error
}

func (p *countingPublisher) Publish(_ context.Context, evs []events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evs = append(p.evs, evs...)
	return p.err
}
