package ledgerstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/dbx"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

const selectState = `SELECT reward_rate_per_second::text, total_deposited, initialized FROM ledger_state
		 WHERE id = 1`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.LedgerState, error) {
	return r.get(ctx, selectState)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context) (*models.LedgerState, error) {
	return r.get(ctx, selectState+" FOR UPDATE")
}

func (r *PostgresRepository) get(ctx context.Context, query string) (*models.LedgerState, error) {
	var (
		rate  string
		total int64
		st    models.LedgerState
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&rate, &total, &st.Initialized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	st.RewardRatePerSecond, err = uint256.FromDecimal(rate)
	if err != nil {
		return nil, fmt.Errorf("decode reward rate %q: %w", rate, err)
	}
	if total < 0 {
		return nil, fmt.Errorf("negative total deposited %d: %w", total, common.ErrorInternal)
	}
	st.TotalDeposited = uint64(total)

	return &st, nil
}

func (r *PostgresRepository) Save(ctx context.Context, st models.LedgerState) error {
	query :=
		`UPDATE ledger_state
		 SET reward_rate_per_second = $1::numeric, total_deposited = $2, initialized = $3
		 WHERE id = 1
		 `

	st = st.Clone()
	res, err := r.db.ExecContext(ctx, query, st.RewardRatePerSecond.Dec(), int64(st.TotalDeposited), st.Initialized)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
