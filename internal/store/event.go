package store

import (
	"database/sql"
	"fmt"
	"sync"
)

// sequenceCounter hands out monotonically increasing sequence numbers
// shared across all event tables, so event order is total regardless of
// which table an event lands in. The counter survives restarts via a
// single-row table.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS global_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			value INTEGER NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}
	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, value) VALUES (1, 0)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence table: %w", err)
	}
	return &sequenceCounter{db: db}, nil
}

// next returns the next sequence number, persisting the increment.
func (c *sequenceCounter) next() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value int64
	err := c.db.QueryRow(
		`UPDATE global_sequence SET value = value + 1 WHERE id = 1 RETURNING value`,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return value, nil
}
