// Package checkpoint persists per-hash progress so an aborted run can be
// resumed without refetching transactions that were already enriched.
package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wehmoen/ronin-wally/internal/archive"
)

// DefaultPath is where the store lives unless configured otherwise.
const DefaultPath = "wally-checkpoint.db"

const queryTimeout = 5 * time.Second

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the checkpoint database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("checkpoint path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			address TEXT NOT NULL,
			hash TEXT NOT NULL,
			state TEXT NOT NULL,
			record TEXT,
			PRIMARY KEY (address, hash)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Entry is a finished hash restored from a previous run. Record is set only
// for enriched entries; skipped entries were filtered out as self transfers.
type Entry struct {
	Hash    string
	Skipped bool
	Record  *archive.EnrichedTransaction
}

// MarkEnriched stores the finished record for a hash.
func (s *Store) MarkEnriched(ctx context.Context, address string, tx archive.EnrichedTransaction) error {
	record, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `INSERT INTO transactions (address, hash, state, record)
		VALUES (?, ?, 'enriched', ?)
		ON CONFLICT(address, hash) DO UPDATE SET state = excluded.state, record = excluded.record`,
		address, tx.Hash, string(record))
	return err
}

// MarkSkipped records that a hash was examined and filtered out.
func (s *Store) MarkSkipped(ctx context.Context, address, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions (address, hash, state, record)
		VALUES (?, ?, 'skipped', NULL)
		ON CONFLICT(address, hash) DO UPDATE SET state = excluded.state, record = excluded.record`,
		address, hash)
	return err
}

// Completed returns every finished hash for address, keyed by hash.
func (s *Store) Completed(ctx context.Context, address string) (map[string]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT hash, state, record FROM transactions WHERE address = ?`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			hash   string
			state  string
			record sql.NullString
		)
		if err := rows.Scan(&hash, &state, &record); err != nil {
			return nil, err
		}

		entry := Entry{Hash: hash, Skipped: state == "skipped"}
		if state == "enriched" {
			if !record.Valid {
				return nil, fmt.Errorf("checkpoint for %s has no record", hash)
			}
			var tx archive.EnrichedTransaction
			if err := json.Unmarshal([]byte(record.String), &tx); err != nil {
				return nil, fmt.Errorf("checkpoint for %s is corrupt: %w", hash, err)
			}
			entry.Record = &tx
		}
		entries[hash] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every row for address. Called once the archive file is
// safely on disk; resume state only matters for aborted runs.
func (s *Store) Clear(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE address = ?`, address)
	return err
}
