// Package checkpoint records which document pages already went through the
// model so a restarted run can skip them.
package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_pages (
	doc_hash     TEXT    NOT NULL,
	page         INTEGER NOT NULL,
	document     TEXT    NOT NULL,
	records      INTEGER NOT NULL,
	processed_at TEXT    NOT NULL,
	PRIMARY KEY (doc_hash, page)
)`

// Ledger is a SQLite-backed set of processed (document hash, page) pairs.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Done reports whether the page was already processed.
func (l *Ledger) Done(ctx context.Context, docHash string, page int) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM processed_pages WHERE doc_hash = ? AND page = ?`,
		docHash, page,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checkpoint lookup: %w", err)
	}
	return n > 0, nil
}

// Mark records a processed page along with how many records it produced.
func (l *Ledger) Mark(ctx context.Context, docHash, document string, page, records int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO processed_pages (doc_hash, page, document, records, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (doc_hash, page) DO UPDATE SET
		   records = excluded.records,
		   processed_at = excluded.processed_at`,
		docHash, page, document, records, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("checkpoint mark: %w", err)
	}
	return nil
}

// Count returns the number of processed pages recorded.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("checkpoint count: %w", err)
	}
	return n, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
