package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"training-load/internal/faults"
	"training-load/internal/trainload"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertLoadRowSQL = `INSERT INTO training_load (
        user_id,
        date,
        tss,
        ctl,
        atl,
        tsb
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (user_id, date) DO UPDATE
    SET
        tss = EXCLUDED.tss,
        ctl = EXCLUDED.ctl,
        atl = EXCLUDED.atl,
        tsb = EXCLUDED.tsb;`

	listHistorySQL = `SELECT
        user_id,
        date,
        tss,
        ctl,
        atl,
        tsb,
        created_at
    FROM training_load
    WHERE user_id = $1
    ORDER BY date DESC
    LIMIT $2;`

	countRowsSQL = `SELECT COUNT(*) FROM training_load WHERE user_id = $1;`

	// Serialises concurrent batch writers for the same user within their
	// transactions; released automatically at commit or rollback.
	advisoryXactLockSQL = `SELECT pg_advisory_xact_lock(hashtext($1));`
)

// LoadStore defines operations for training-load persistence.
type LoadStore interface {
	UpsertBatch(ctx context.Context, userID string, series []trainload.Point) error
	ListHistory(ctx context.Context, userID string, limit int) ([]LoadRow, error)
	CountRows(ctx context.Context, userID string) (int64, error)
}

// Store persists training-load rows in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertBatch writes a computed series for one user in a single transaction.
// Each point fully replaces any existing row at its (user_id, date) key;
// dates outside the batch are never touched. A per-user advisory lock keeps
// overlapping invocations from interleaving partial batches.
func (s *Store) UpsertBatch(ctx context.Context, userID string, series []trainload.Point) error {
	if len(series) == 0 {
		return nil
	}

	pool, err := s.getPool()
	if err != nil {
		return faults.Tag(faults.ErrStorage, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return faults.Tag(faults.ErrStorage, fmt.Errorf("begin batch upsert: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, advisoryXactLockSQL, userID); err != nil {
		return faults.Tag(faults.ErrStorage, fmt.Errorf("acquire user lock: %w", err))
	}

	for _, p := range series {
		_, err := tx.Exec(ctx, upsertLoadRowSQL,
			userID,
			p.Date,
			decimal.NewFromFloat(p.TSS).String(),
			decimal.NewFromFloat(p.CTL).String(),
			decimal.NewFromFloat(p.ATL).String(),
			decimal.NewFromFloat(p.TSB).String(),
		)
		if err != nil {
			return faults.Tag(faults.ErrStorage,
				fmt.Errorf("upsert load row %s: %w", p.Date.Format("2006-01-02"), err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return faults.Tag(faults.ErrStorage, fmt.Errorf("commit batch upsert: %w", err))
	}
	return nil
}

// ListHistory returns the most recent stored rows for a user, newest first.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]LoadRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, faults.Tag(faults.ErrStorage, err)
	}

	rows, queryErr := pool.Query(ctx, listHistorySQL, userID, limit)
	if queryErr != nil {
		return nil, faults.Tag(faults.ErrStorage, fmt.Errorf("list history: %w", queryErr))
	}
	defer rows.Close()

	history := make([]LoadRow, 0, limit)
	for rows.Next() {
		row, scanErr := scanLoadRow(rows)
		if scanErr != nil {
			return nil, faults.Tag(faults.ErrStorage, scanErr)
		}
		history = append(history, row)
	}
	if rows.Err() != nil {
		return nil, faults.Tag(faults.ErrStorage, rows.Err())
	}
	return history, nil
}

// CountRows counts stored rows for a user.
func (s *Store) CountRows(ctx context.Context, userID string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, faults.Tag(faults.ErrStorage, err)
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRowsSQL, userID).Scan(&count); scanErr != nil {
		return 0, faults.Tag(faults.ErrStorage, fmt.Errorf("count rows: %w", scanErr))
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoadRow(row rowScanner) (LoadRow, error) {
	var (
		userID    string
		date      time.Time
		tssStr    string
		ctlStr    string
		atlStr    string
		tsbStr    string
		createdAt time.Time
	)

	if err := row.Scan(&userID, &date, &tssStr, &ctlStr, &atlStr, &tsbStr, &createdAt); err != nil {
		return LoadRow{}, err
	}

	out := LoadRow{UserID: userID, Date: date, CreatedAt: createdAt}
	for _, field := range []struct {
		name string
		src  string
		dst  *decimal.Decimal
	}{
		{"tss", tssStr, &out.TSS},
		{"ctl", ctlStr, &out.CTL},
		{"atl", atlStr, &out.ATL},
		{"tsb", tsbStr, &out.TSB},
	} {
		value, err := decimal.NewFromString(field.src)
		if err != nil {
			return LoadRow{}, fmt.Errorf("parse %s: %w", field.name, err)
		}
		*field.dst = value
	}

	return out, nil
}

var _ LoadStore = (*Store)(nil)
