// Package store provides durable persistence backends for the event ledger
// (C2). Implementations append events to a stream and load a stream back in
// order; the kernel package's Ledger owns hash-chaining and projection on
// top of whatever backend is configured here.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when streamID has no events.
var ErrNotFound = errors.New("store: stream not found")

// Event is the durable wire shape of one event-ledger record: streamId, seq
// (u64), timestamp (UTC), kind, payload (canonical JSON), prevHash, hash
// (hex SHA-256, "sha256:" prefixed).
type Event struct {
	StreamID  string          `json:"streamId"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prevHash"`
	Hash      string          `json:"hash"`
}

// EventStore persists append-only event streams for the Event Ledger (C2).
//
// Implementations:
//   - MemStore: in-memory, for tests and single-process development.
//   - SQLiteStore: single-file durable storage.
//   - MySQLStore: shared durable storage for multi-instance deployments.
//
// Append is expected to be atomic for the batch of events passed in one
// call; the kernel.Ledger above this interface additionally serializes
// concurrent Append calls per streamID, so backends do not need their own
// per-stream locking to satisfy the "append is atomic per stream" guarantee,
// though they remain free to add it for safety under direct use.
type EventStore interface {
	// Append persists events (already Seq/Hash-assigned by the ledger) onto
	// streamID, in order.
	Append(ctx context.Context, streamID string, events []Event) error

	// Load returns every event in streamID in append (Seq-ascending) order.
	// Returns ErrNotFound if the stream has never been appended to.
	Load(ctx context.Context, streamID string) ([]Event, error)

	// Streams lists every stream id known to the store, for operator
	// tooling and integrity sweeps.
	Streams(ctx context.Context) ([]string, error)
}
