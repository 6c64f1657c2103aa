package store

import (
	"context"
	"database/sql"
	"fmt"
)

// sequenceCounter hands out one monotonic sequence shared by every event
// table, so lookups, answers and LLM calls can be interleaved in one
// timeline even though each table has its own row IDs.
type sequenceCounter struct {
	db *sql.DB
}

// newSequenceCounter ensures the single-row tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next returns the next sequence number. Called inside the transaction that
// inserts the event, so a failed insert does not burn a number.
func (sc *sequenceCounter) Next(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// appendEvent runs insert with a fresh sequence number in one transaction.
func (sc *sequenceCounter) appendEvent(ctx context.Context, insert func(tx *sql.Tx, seq int64) error) error {
	tx, err := sc.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := sc.Next(ctx, tx)
	if err != nil {
		return err
	}
	if err := insert(tx, seq); err != nil {
		return err
	}
	return tx.Commit()
}
