package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/repomanager"
)

func newSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, repomanager.NewPostgresRepositoryManager()), mock
}

func lockedState(mock sqlmock.Sqlmock, rate string, total int64) {
	mock.ExpectQuery(`(?s)SELECT reward_rate_per_second::text.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"r", "t", "i"}).AddRow(rate, total, true))
}

func TestSQLStore_UpdateCommits(t *testing.T) {
	s, mock := newSQLStore(t)

	mock.ExpectBegin()
	lockedState(mock, "10", 0)
	mock.ExpectQuery(`SELECT item_id, holder, deposited_at FROM stakes`).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "holder", "deposited_at"}))
	mock.ExpectExec(`INSERT INTO stakes`).WithArgs("1", "alice", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE ledger_state`).WithArgs("10", int64(1), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), func(ctx context.Context, r Records) error {
		_, found, err := r.Get(ctx, "1")
		require.NoError(t, err)
		require.False(t, found)
		require.NoError(t, r.Insert(ctx, models.Stake{ItemID: "1", Holder: "alice", DepositedAt: 5}))

		st, err := r.State(ctx)
		require.NoError(t, err)
		st.TotalDeposited++
		if err := r.SaveState(ctx, st); err != nil {
			return err
		}
		st, _ = r.State(ctx)
		assert.Equal(t, uint64(1), st.TotalDeposited)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_UpdateRollsBack(t *testing.T) {
	s, mock := newSQLStore(t)

	mock.ExpectBegin()
	lockedState(mock, "10", 1)
	mock.ExpectExec(`INSERT INTO stakes`).WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	err := s.Update(context.Background(), func(ctx context.Context, r Records) error {
		return r.Insert(ctx, models.Stake{ItemID: "1", Holder: "alice"})
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ViewIsReadOnly(t *testing.T) {
	s, mock := newSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT reward_rate_per_second::text`).
		WillReturnRows(sqlmock.NewRows([]string{"r", "t", "i"}).AddRow("3", int64(0), true))
	mock.ExpectRollback()

	err := s.View(context.Background(), func(ctx context.Context, r Records) error {
		st, err := r.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), st.RewardRatePerSecond.Uint64())
		return r.SaveState(ctx, st)
	})
	require.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}
