package storage

import (
	"context"
	"fmt"

	"training-load/internal/faults"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS training_load (
        user_id    TEXT        NOT NULL,
        date       DATE        NOT NULL,
        tss        NUMERIC     NOT NULL,
        ctl        NUMERIC     NOT NULL,
        atl        NUMERIC     NOT NULL,
        tsb        NUMERIC     NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (user_id, date)
    );`,

	`CREATE INDEX IF NOT EXISTS idx_training_load_date ON training_load (date);`,
}

// EnsureSchema creates the training_load table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return faults.Tag(faults.ErrStorage, err)
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return faults.Tag(faults.ErrStorage, fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}
