package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequenceCounter hands out the global monotonic sequence number that
// orders answer records across sessions. It lives in its own one-row table
// so the ordering survives restarts and does not depend on a driver's
// auto-increment semantics.
//
// The mutex serializes within the process; the row lock taken by the
// dialect's LockSuffix serializes across processes sharing a database.
type sequenceCounter struct {
	mu      sync.Mutex
	dialect Dialect
}

// newSequenceCounter seeds the tracking row. The table itself is part of
// the dialect schema.
func newSequenceCounter(ctx context.Context, db *sql.DB, d Dialect) (*sequenceCounter, error) {
	_, err := db.ExecContext(ctx,
		d.InsertIgnore()+` INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{dialect: d}, nil
}

// next returns the next sequence number and advances the counter inside tx.
// Callers hold sc.mu for the lifetime of tx.
func (sc *sequenceCounter) next(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`SELECT next_val FROM global_sequence WHERE id = 1`+sc.dialect.LockSuffix(),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE global_sequence SET next_val = ? WHERE id = 1`, seq+1,
	); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}
