// Package models defines server-side data models persisted in the database.
package models

import "github.com/holiman/uint256"

// Stake is the custody record of one deposited item. A record exists only
// while the item sits in the vault.
type Stake struct {
	// ItemID is assigned by the external asset registry.
	ItemID string `json:"item_id"`
	// Holder deposited the item and alone may withdraw or harvest it.
	Holder string `json:"holder"`
	// DepositedAt is the unix second of the deposit or of the latest harvest.
	DepositedAt int64 `json:"deposited_at"`
}

// LedgerState is the single global row of the ledger.
type LedgerState struct {
	RewardRatePerSecond *uint256.Int
	TotalDeposited      uint64
	// Initialized is set once the construction-time rate has been applied.
	Initialized bool
}

// Clone returns a deep copy so callers can mutate the rate freely.
func (s LedgerState) Clone() LedgerState {
	c := s
	if s.RewardRatePerSecond != nil {
		c.RewardRatePerSecond = s.RewardRatePerSecond.Clone()
	} else {
		c.RewardRatePerSecond = new(uint256.Int)
	}
	return c
}

// Snapshot is a point-in-time export of the whole ledger.
type Snapshot struct {
	TakenAt             int64   `json:"taken_at"`
	RewardRatePerSecond string  `json:"reward_rate_per_second"`
	TotalDeposited      uint64  `json:"total_deposited"`
	Stakes              []Stake `json:"stakes"`
}
