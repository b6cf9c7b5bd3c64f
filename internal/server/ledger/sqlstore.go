package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/dbx"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/ledgerstate"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/stakes"
)

// SQLStore keeps ledger state in PostgreSQL. Every Update locks the global
// state row first, so writers on different replicas are serialized by the
// database.
type SQLStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewSQLStore(db *sql.DB, repos repomanager.RepositoryManager) *SQLStore {
	return &SQLStore{db: db, repos: repos}
}

func (s *SQLStore) Update(ctx context.Context, fn func(ctx context.Context, r Records) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.records(tx)
		st, err := r.state.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		r.cached = st
		return fn(ctx, r)
	})
}

func (s *SQLStore) View(ctx context.Context, fn func(ctx context.Context, r Records) error) error {
	return dbx.WithReadTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.records(tx))
	})
}

func (s *SQLStore) records(tx dbx.DBTX) *sqlRecords {
	return &sqlRecords{
		stakes: s.repos.Stakes(tx),
		state:  s.repos.LedgerState(tx),
	}
}

type sqlRecords struct {
	stakes stakes.Repository
	state  ledgerstate.Repository
	// cached holds the row locked by Update.
	cached *models.LedgerState
}

func (r *sqlRecords) Get(ctx context.Context, itemID string) (models.Stake, bool, error) {
	s, err := r.stakes.Get(ctx, itemID)
	if errors.Is(err, common.ErrorNotFound) {
		return models.Stake{}, false, nil
	}
	if err != nil {
		return models.Stake{}, false, err
	}
	return *s, true, nil
}

func (r *sqlRecords) Insert(ctx context.Context, stake models.Stake) error {
	err := r.stakes.Insert(ctx, stake)
	if errors.Is(err, common.ErrorConflict) {
		return itemErr(stake.ItemID, ErrAlreadyStaked)
	}
	return err
}

func (r *sqlRecords) Touch(ctx context.Context, itemID string, at int64) error {
	return r.stakes.Touch(ctx, itemID, at)
}

func (r *sqlRecords) Delete(ctx context.Context, itemID string) error {
	return r.stakes.Delete(ctx, itemID)
}

func (r *sqlRecords) ByHolder(ctx context.Context, holder string) ([]models.Stake, error) {
	return r.stakes.ListByHolder(ctx, holder)
}

func (r *sqlRecords) All(ctx context.Context) ([]models.Stake, error) {
	return r.stakes.List(ctx)
}

func (r *sqlRecords) Count(ctx context.Context) (uint64, error) {
	return r.stakes.Count(ctx)
}

func (r *sqlRecords) State(ctx context.Context) (models.LedgerState, error) {
	if r.cached != nil {
		return r.cached.Clone(), nil
	}
	st, err := r.state.Get(ctx)
	if err != nil {
		return models.LedgerState{}, err
	}
	return st.Clone(), nil
}

func (r *sqlRecords) SaveState(ctx context.Context, st models.LedgerState) error {
	if r.cached == nil {
		return fmt.Errorf("state saved outside update: %w", common.ErrorInternal)
	}
	if err := r.state.Save(ctx, st); err != nil {
		return err
	}
	c := st.Clone()
	r.cached = &c
	return nil
}
