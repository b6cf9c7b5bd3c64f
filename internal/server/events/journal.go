package events

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/stakeledger/internal/dbx"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	Holder string
	ItemID string
	Kind   Kind
	Limit  int
}

// Journal is an append-only SQLite log of published events.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database at dsn and
// brings its schema up to date.
func OpenJournal(ctx context.Context, dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one writer, and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if err := migrateJournal(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func migrateJournal(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("journal migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("journal migrations: %w", err)
	}
	return nil
}

func (j *Journal) Publish(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO events (id, kind, holder, item_id, amount, ts) VALUES (?, ?, ?, ?, ?, ?)`
		for _, e := range evs {
			if _, err := tx.ExecContext(ctx, query, e.ID, string(e.Kind), e.Holder, e.ItemID, e.Amount, e.Timestamp); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

// Query returns the most recent entries matching f, oldest first.
func (j *Journal) Query(ctx context.Context, f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Holder != "" {
		where = append(where, "holder = ?")
		args = append(args, f.Holder)
	}
	if f.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	limit = min(limit, MaxQueryLimit)

	query := `SELECT id, kind, holder, item_id, amount, ts FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var (
			e    Event
			kind string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Holder, &e.ItemID, &e.Amount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
