package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed EventStore, grounded on the retrieved
// example's SQLiteStore[S]: a single-file database opened in WAL mode with a
// one-writer connection pool, auto-migrated on first use.
//
// Designed for development, single-process deployments, and prototyping
// before migrating to MySQLStore for shared/durable multi-instance use.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path.
// Use ":memory:" for an ephemeral in-process database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: configure sqlite (%s): %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ledger_events (
	stream_id   TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	timestamp   TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	payload     TEXT    NOT NULL,
	prev_hash   TEXT    NOT NULL,
	hash        TEXT    NOT NULL,
	PRIMARY KEY (stream_id, seq)
)`)
	return err
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts events into ledger_events within a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, streamID string, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO ledger_events (stream_id, seq, timestamp, kind, payload, prev_hash, hash)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, streamID, e.Seq, e.Timestamp.Format(sqliteTimeLayout), e.Kind, string(e.Payload), e.PrevHash, e.Hash); err != nil {
			return fmt.Errorf("store: insert event seq %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// Load returns streamID's events ordered by seq ascending.
func (s *SQLiteStore) Load(ctx context.Context, streamID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, timestamp, kind, payload, prev_hash, hash
FROM ledger_events WHERE stream_id = ? ORDER BY seq ASC`, streamID)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var ts, payload string
		if err := rows.Scan(&e.Seq, &ts, &e.Kind, &payload, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.StreamID = streamID
		e.Payload = []byte(payload)
		parsed, perr := parseSQLiteTime(ts)
		if perr != nil {
			return nil, fmt.Errorf("store: parse timestamp: %w", perr)
		}
		e.Timestamp = parsed
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Streams lists distinct stream ids present in ledger_events.
func (s *SQLiteStore) Streams(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT stream_id FROM ledger_events ORDER BY stream_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: query streams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
