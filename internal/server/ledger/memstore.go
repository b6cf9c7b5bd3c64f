package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// MemoryStore keeps ledger state in process memory. Writes of an Update are
// staged and applied only when fn succeeds. Updates are serialized by wmu and
// hold mu exclusively only while applying, so a View started from inside a
// running Update sees the last committed state instead of blocking.
type MemoryStore struct {
	wmu      sync.Mutex
	mu       sync.RWMutex
	stakes   map[string]models.Stake
	byHolder map[string]map[string]struct{}
	state    models.LedgerState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stakes:   make(map[string]models.Stake),
		byHolder: make(map[string]map[string]struct{}),
		state:    models.LedgerState{}.Clone(),
	}
}

func (m *MemoryStore) Update(ctx context.Context, fn func(ctx context.Context, r Records) error) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()

	tx := &memTx{base: m, staged: make(map[string]*models.Stake)}
	m.mu.RLock()
	err := fn(ctx, tx)
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	m.mu.Lock()
	tx.apply()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, r Records) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(ctx, &memTx{base: m, readOnly: true})
}

// memTx overlays staged writes on top of the committed maps. A nil entry in
// staged marks a deletion.
type memTx struct {
	base     *MemoryStore
	staged   map[string]*models.Stake
	state    *models.LedgerState
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return fmt.Errorf("write in read-only view: %w", common.ErrorInternal)
	}
	return nil
}

func (t *memTx) Get(_ context.Context, itemID string) (models.Stake, bool, error) {
	if s, ok := t.staged[itemID]; ok {
		if s == nil {
			return models.Stake{}, false, nil
		}
		return *s, true, nil
	}
	s, ok := t.base.stakes[itemID]
	return s, ok, nil
}

func (t *memTx) Insert(ctx context.Context, stake models.Stake) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, found, _ := t.Get(ctx, stake.ItemID); found {
		return itemErr(stake.ItemID, ErrAlreadyStaked)
	}
	s := stake
	t.staged[stake.ItemID] = &s
	return nil
}

func (t *memTx) Touch(ctx context.Context, itemID string, at int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	s, found, _ := t.Get(ctx, itemID)
	if !found {
		return itemErr(itemID, common.ErrorNotFound)
	}
	s.DepositedAt = at
	t.staged[itemID] = &s
	return nil
}

func (t *memTx) Delete(ctx context.Context, itemID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, found, _ := t.Get(ctx, itemID); !found {
		return itemErr(itemID, common.ErrorNotFound)
	}
	t.staged[itemID] = nil
	return nil
}

func (t *memTx) ByHolder(ctx context.Context, holder string) ([]models.Stake, error) {
	ids := make(map[string]struct{}, len(t.base.byHolder[holder]))
	for id := range t.base.byHolder[holder] {
		ids[id] = struct{}{}
	}
	for id, s := range t.staged {
		if s != nil && s.Holder == holder {
			ids[id] = struct{}{}
		}
	}

	out := make([]models.Stake, 0, len(ids))
	for id := range ids {
		if s, found, _ := t.Get(ctx, id); found && s.Holder == holder {
			out = append(out, s)
		}
	}
	sortStakes(out)
	return out, nil
}

func (t *memTx) All(ctx context.Context) ([]models.Stake, error) {
	ids := make(map[string]struct{}, len(t.base.stakes))
	for id := range t.base.stakes {
		ids[id] = struct{}{}
	}
	for id := range t.staged {
		ids[id] = struct{}{}
	}

	out := make([]models.Stake, 0, len(ids))
	for id := range ids {
		if s, found, _ := t.Get(ctx, id); found {
			out = append(out, s)
		}
	}
	sortStakes(out)
	return out, nil
}

func (t *memTx) Count(ctx context.Context) (uint64, error) {
	all, err := t.All(ctx)
	if err != nil {
		return 0, err
	}
	return uint64(len(all)), nil
}

func (t *memTx) State(_ context.Context) (models.LedgerState, error) {
	if t.state != nil {
		return t.state.Clone(), nil
	}
	return t.base.state.Clone(), nil
}

func (t *memTx) SaveState(_ context.Context, st models.LedgerState) error {
	if err := t.writable(); err != nil {
		return err
	}
	c := st.Clone()
	t.state = &c
	return nil
}

func (t *memTx) apply() {
	m := t.base
	for id, s := range t.staged {
		if old, ok := m.stakes[id]; ok {
			delete(m.byHolder[old.Holder], id)
			if len(m.byHolder[old.Holder]) == 0 {
				delete(m.byHolder, old.Holder)
			}
			delete(m.stakes, id)
		}
		if s == nil {
			continue
		}
		m.stakes[id] = *s
		if m.byHolder[s.Holder] == nil {
			m.byHolder[s.Holder] = make(map[string]struct{})
		}
		m.byHolder[s.Holder][id] = struct{}{}
	}
	if t.state != nil {
		m.state = *t.state
	}
}

func sortStakes(s []models.Stake) {
	sort.Slice(s, func(i, j int) bool { return s[i].ItemID < s[j].ItemID })
}
