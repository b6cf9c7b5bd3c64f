// Package external provides the custody and treasury collaborators of the
// ledger: in-memory implementations for development and tests, and gRPC
// adapters for the remote services.
package external

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/dmitrijs2005/stakeledger/internal/common"
)

var (
	ErrNotHeld           = errors.New("item not held by sender")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// MemoryCustody is an in-process asset registry.
type MemoryCustody struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewMemoryCustody(owners map[string]string) *MemoryCustody {
	m := &MemoryCustody{owners: make(map[string]string, len(owners))}
	for id, o := range owners {
		m.owners[id] = o
	}
	return m
}

// Mint registers a new item.
func (m *MemoryCustody) Mint(itemID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[itemID]; ok {
		return fmt.Errorf("item %s: %w", itemID, common.ErrorConflict)
	}
	m.owners[itemID] = owner
	return nil
}

func (m *MemoryCustody) OwnerOf(_ context.Context, itemID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[itemID]
	if !ok {
		return "", fmt.Errorf("item %s: %w", itemID, common.ErrorNotFound)
	}
	return owner, nil
}

func (m *MemoryCustody) Transfer(_ context.Context, itemID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[itemID] != from {
		return fmt.Errorf("item %s from %s: %w", itemID, from, ErrNotHeld)
	}
	m.owners[itemID] = to
	return nil
}

// MemoryTreasury is an in-process token ledger paying out of one operating
// account.
type MemoryTreasury struct {
	mu        sync.Mutex
	operating string
	balances  map[string]*uint256.Int
}

func NewMemoryTreasury(operating string, funds *uint256.Int) *MemoryTreasury {
	t := &MemoryTreasury{operating: operating, balances: make(map[string]*uint256.Int)}
	if funds != nil {
		t.balances[operating] = funds.Clone()
	}
	return t
}

// Fund credits account without a matching debit.
func (t *MemoryTreasury) Fund(account string, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.balance(account)
	if _, overflow := b.AddOverflow(b, amount); overflow {
		return fmt.Errorf("fund %s: balance overflow", account)
	}
	return nil
}

func (t *MemoryTreasury) Transfer(_ context.Context, to string, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.balance(t.operating)
	if src.Lt(amount) {
		return fmt.Errorf("pay %s to %s: %w", amount.Dec(), to, ErrInsufficientFunds)
	}
	dst := t.balance(to)
	if _, overflow := new(uint256.Int).AddOverflow(dst, amount); overflow {
		return fmt.Errorf("pay %s to %s: balance overflow", amount.Dec(), to)
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}

func (t *MemoryTreasury) BalanceOf(_ context.Context, account string) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(account).Clone(), nil
}

func (t *MemoryTreasury) balance(account string) *uint256.Int {
	b, ok := t.balances[account]
	if !ok {
		b = new(uint256.Int)
		t.balances[account] = b
	}
	return b
}
