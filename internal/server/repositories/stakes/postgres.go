package stakes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/dbx"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, itemID string) (*models.Stake, error) {
	query :=
		`SELECT item_id, holder, deposited_at FROM stakes
		 WHERE item_id = $1
		 `

	s := &models.Stake{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&s.ItemID, &s.Holder, &s.DepositedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, stake models.Stake) error {
	query :=
		`INSERT INTO stakes (item_id, holder, deposited_at)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, stake.ItemID, stake.Holder, stake.DepositedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, itemID string, at int64) error {
	query :=
		`UPDATE stakes SET deposited_at = $2
		 WHERE item_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, itemID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, itemID string) error {
	query := `DELETE FROM stakes WHERE item_id = $1`

	res, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) ListByHolder(ctx context.Context, holder string) ([]models.Stake, error) {
	query :=
		`SELECT item_id, holder, deposited_at FROM stakes
		 WHERE holder = $1
		 ORDER BY item_id
		 `

	return r.list(ctx, query, holder)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Stake, error) {
	query :=
		`SELECT item_id, holder, deposited_at FROM stakes
		 ORDER BY item_id
		 `

	return r.list(ctx, query)
}

func (r *PostgresRepository) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM stakes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(n), nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Stake, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Stake, 0)
	for rows.Next() {
		var s models.Stake
		if err := rows.Scan(&s.ItemID, &s.Holder, &s.DepositedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
