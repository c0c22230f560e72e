package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed EventStore, grounded on the retrieved
// example's MySQLStore[S]: a shared, durable backend for multi-instance
// deployments where SQLiteStore's single-writer model does not apply.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn (a go-sql-driver/mysql
// data source name) and ensures the ledger_events table exists.
func NewMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ledger_events (
	stream_id   VARCHAR(191) NOT NULL,
	seq         BIGINT UNSIGNED NOT NULL,
	timestamp   DATETIME(6) NOT NULL,
	kind        VARCHAR(191) NOT NULL,
	payload     JSON NOT NULL,
	prev_hash   VARCHAR(128) NOT NULL,
	hash        VARCHAR(128) NOT NULL,
	PRIMARY KEY (stream_id, seq)
) ENGINE=InnoDB`)
	return err
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Append inserts events within a single transaction; MySQL's InnoDB row
// locking on the (stream_id, seq) primary key gives per-stream atomicity for
// the batch.
func (s *MySQLStore) Append(ctx context.Context, streamID string, events []Event) error {
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
		if _, err := stmt.ExecContext(ctx, streamID, e.Seq, e.Timestamp, e.Kind, string(e.Payload), e.PrevHash, e.Hash); err != nil {
			return fmt.Errorf("store: insert event seq %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// Load returns streamID's events ordered by seq ascending.
func (s *MySQLStore) Load(ctx context.Context, streamID string) ([]Event, error) {
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
		var payload string
		if err := rows.Scan(&e.Seq, &e.Timestamp, &e.Kind, &payload, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.StreamID = streamID
		e.Payload = []byte(payload)
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
func (s *MySQLStore) Streams(ctx context.Context) ([]string, error) {
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
