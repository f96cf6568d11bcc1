// Package index is the persistent discovery index: a durable
// URL-hash -> (url, depth, completed) table that backs invariants
// I1-I3. Every mutation is followed by a synchronous write so a crash
// loses at most the record being written, replacing the original
// shelve-plus-pickle-snapshot design's two observed failure modes
// (partial updates on crash, schema drift between restart paths).
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Record is one discovery-index entry.
type Record struct {
	Hash      string
	URL       string
	Depth     int
	Completed bool
}

// Index is the embedded-SQLite-backed discovery index. SQLite only
// supports one writer at a time so the connection pool is pinned to a
// single connection, matching the index's own single-writer contract
// (the frontier is its only caller).
type Index struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the discovery index at path. When restart is
// false, an existing file's entries are preserved for resumption; when
// restart is true, the file is recreated empty, matching spec §4.7's
// "opening on restart recreates the file empty" rule. Use ":memory:"
// for a non-persistent index (tests only — I1-I3 durability has no
// meaning without a file).
func Open(path string, restart bool) (*Index, error) {
	if restart && path != ":memory:" {
		_ = removeIfExists(path)
		_ = removeIfExists(path + "-wal")
		_ = removeIfExists(path + "-shm")
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("index: opening %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: connecting to %s: %w", path, err)
	}

	// PRAGMA synchronous=FULL is the write-barrier spec §4.7 demands:
	// every mutation durably hits disk before the call returns, at the
	// cost of WAL's relaxed-durability throughput.
	if _, err := conn.Exec("PRAGMA synchronous = FULL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: setting synchronous mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil && path != ":memory:" {
		conn.Close()
		return nil, fmt.Errorf("index: enabling WAL: %w", err)
	}

	idx := &Index{db: conn, path: path}
	if err := idx.createSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return idx, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (idx *Index) createSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS discovery (
			hash TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			depth INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
		);
	`
	_, err := idx.db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Has reports whether hash already has an entry.
func (idx *Index) Has(ctx context.Context, hash string) (bool, error) {
	var exists int
	err := idx.db.QueryRowContext(ctx, `SELECT 1 FROM discovery WHERE hash = ?`, hash).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: has(%s): %w", hash, err)
	}
	return true, nil
}

// Put inserts a new record (url, depth, completed=false) for hash,
// synchronously. Invariant I2 (unique enqueue) is enforced by the
// caller checking Has before Put under the frontier lock; Put itself
// uses INSERT OR IGNORE so a racing duplicate is a no-op rather than
// an error.
func (idx *Index) Put(ctx context.Context, hash, url string, depth int) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO discovery (hash, url, depth, completed) VALUES (?, ?, ?, 0)`,
		hash, url, depth)
	if err != nil {
		return fmt.Errorf("index: put(%s): %w", hash, err)
	}
	return nil
}

// SetCompleted marks hash completed=true (invariant I1: monotone,
// never reverts — the UPDATE only ever sets 1, never clears it).
func (idx *Index) SetCompleted(ctx context.Context, hash string) error {
	_, err := idx.db.ExecContext(ctx, `UPDATE discovery SET completed = 1 WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("index: set_completed(%s): %w", hash, err)
	}
	return nil
}

// IterOpen returns every record with completed=false, used to seed
// host queues on a non-restart startup.
func (idx *Index) IterOpen(ctx context.Context) ([]Record, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT hash, url, depth, completed FROM discovery WHERE completed = 0`)
	if err != nil {
		return nil, fmt.Errorf("index: iter_open: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var completed int
		if err := rows.Scan(&r.Hash, &r.URL, &r.Depth, &completed); err != nil {
			return nil, fmt.Errorf("index: iter_open scan: %w", err)
		}
		r.Completed = completed != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// Len returns the total number of records, completed or not.
func (idx *Index) Len(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM discovery`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: len: %w", err)
	}
	return n, nil
}
