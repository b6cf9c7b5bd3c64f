package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

func TestMemoryStore_UpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	boom := errors.New("boom")
	err := m.Update(ctx, func(ctx context.Context, r Records) error {
		require.NoError(t, r.Insert(ctx, models.Stake{ItemID: "1", Holder: "alice", DepositedAt: 5}))
		st, _ := r.State(ctx)
		st.TotalDeposited = 1
		require.NoError(t, r.SaveState(ctx, st))

		_, found, _ := r.Get(ctx, "1")
		assert.True(t, found, "staged insert visible inside the unit of work")
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, m.View(ctx, func(ctx context.Context, r Records) error {
		_, found, err := r.Get(ctx, "1")
		require.NoError(t, err)
		assert.False(t, found)
		n, _ := r.Count(ctx)
		assert.Zero(t, n)
		st, _ := r.State(ctx)
		assert.Zero(t, st.TotalDeposited)
		return nil
	}))
}

func TestMemoryStore_HolderIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Update(ctx, func(ctx context.Context, r Records) error {
		for _, s := range []models.Stake{
			{ItemID: "b", Holder: "alice"},
			{ItemID: "a", Holder: "alice"},
			{ItemID: "c", Holder: "bob"},
		} {
			if err := r.Insert(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, m.Update(ctx, func(ctx context.Context, r Records) error {
		if err := r.Delete(ctx, "b"); err != nil {
			return err
		}
		// staged state is merged into holder queries
		got, err := r.ByHolder(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []models.Stake{{ItemID: "a", Holder: "alice"}}, got)
		return r.Touch(ctx, "c", 42)
	}))

	require.NoError(t, m.View(ctx, func(ctx context.Context, r Records) error {
		got, _ := r.ByHolder(ctx, "bob")
		assert.Equal(t, []models.Stake{{ItemID: "c", Holder: "bob", DepositedAt: 42}}, got)
		got, _ = r.ByHolder(ctx, "alice")
		assert.Len(t, got, 1)
		all, _ := r.All(ctx)
		assert.Len(t, all, 2)
		return nil
	}))
	assert.NotContains(t, m.byHolder["alice"], "b")
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	err := m.Update(ctx, func(ctx context.Context, r Records) error {
		require.NoError(t, r.Insert(ctx, models.Stake{ItemID: "1", Holder: "alice"}))
		assert.ErrorIs(t, r.Insert(ctx, models.Stake{ItemID: "1", Holder: "bob"}), ErrAlreadyStaked)
		assert.ErrorIs(t, r.Touch(ctx, "2", 1), common.ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "2"), common.ErrorNotFound)
		return nil
	})
	require.NoError(t, err)

	err = m.View(ctx, func(ctx context.Context, r Records) error {
		return r.Delete(ctx, "1")
	})
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestMemoryStore_StateIsCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Update(ctx, func(ctx context.Context, r Records) error {
		st, _ := r.State(ctx)
		st.RewardRatePerSecond.SetUint64(7)
		// not saved
		return nil
	}))
	require.NoError(t, m.View(ctx, func(ctx context.Context, r Records) error {
		st, _ := r.State(ctx)
		assert.True(t, st.RewardRatePerSecond.Eq(new(uint256.Int)))
		return nil
	}))
}

func TestMemoryStore_ViewDuringUpdateSeesCommitted(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Update(ctx, func(ctx context.Context, r Records) error {
		return r.Insert(ctx, models.Stake{ItemID: "1", Holder: "alice"})
	}))

	var seen []models.Stake
	err := m.Update(ctx, func(ctx context.Context, r Records) error {
		require.NoError(t, r.Insert(ctx, models.Stake{ItemID: "2", Holder: "alice"}))
		return m.View(ctx, func(ctx context.Context, r Records) error {
			var err error
			seen, err = r.ByHolder(ctx, "alice")
			return err
		})
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "1", seen[0].ItemID)
}
