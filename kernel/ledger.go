package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/agentkernel/kernel/store"
)

// Ledger is the append-only Event Ledger (C2): a typed event log with a
// content-hash chain, replayable into state via Project. Append is atomic
// per stream; concurrent appends to the same stream serialize, concurrent
// appends to distinct streams proceed independently — the same per-key
// locking granularity the retrieved example's MemStore applies per run.
type Ledger struct {
	backend store.EventStore

	mu     sync.Mutex
	stream map[string]*sync.Mutex
}

// NewLedger constructs a Ledger over a durable EventStore backend (an
// in-memory, SQLite, or MySQL implementation from the store package).
func NewLedger(backend store.EventStore) *Ledger {
	return &Ledger{backend: backend, stream: make(map[string]*sync.Mutex)}
}

func (l *Ledger) lockFor(streamID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.stream[streamID]
	if !ok {
		m = &sync.Mutex{}
		l.stream[streamID] = m
	}
	return m
}

// Append atomically extends streamID's hash chain with the given events'
// Kind/Payload, assigning dense, strictly increasing Seq numbers and
// computing PrevHash/Hash for each. Events supplied with a pre-set Seq/Hash
// are overwritten: callers only need to provide Kind and Payload.
func (l *Ledger) Append(ctx context.Context, streamID string, events []Event) error {
	lock := l.lockFor(streamID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := l.backend.Load(ctx, streamID)
	if err != nil && err != store.ErrNotFound {
		return fmt.Errorf("kernel: ledger append: load existing stream: %w", err)
	}

	prevHash := genesisHash
	seq := uint64(1)
	if len(existing) > 0 {
		last := existing[len(existing)-1]
		prevHash = last.Hash
		seq = last.Seq + 1
	}

	out := make([]store.Event, 0, len(events))
	for _, e := range events {
		if e.Payload == nil {
			e.Payload = json.RawMessage("null")
		}
		hash, herr := computeEventHash(prevHash, e.Kind, e.Payload)
		if herr != nil {
			return fmt.Errorf("kernel: ledger append: hash event: %w", herr)
		}
		e.StreamID = streamID
		e.Seq = seq
		e.PrevHash = prevHash
		e.Hash = hash
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now().UTC()
		}
		out = append(out, toStoreEvent(e))
		prevHash = hash
		seq++
	}

	return l.backend.Append(ctx, streamID, out)
}

// Load returns every event in streamID, in append order.
func (l *Ledger) Load(ctx context.Context, streamID string) ([]Event, error) {
	raw, err := l.backend.Load(ctx, streamID)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(raw))
	for i, e := range raw {
		out[i] = fromStoreEvent(e)
	}
	return out, nil
}

// Verify recomputes streamID's hash chain from genesis and returns false on
// the first mismatch (tampering with any one event flips Verify to false for
// the whole stream).
func (l *Ledger) Verify(ctx context.Context, streamID string) (bool, error) {
	events, err := l.Load(ctx, streamID)
	if err != nil {
		if err == store.ErrNotFound {
			return true, nil
		}
		return false, err
	}

	prevHash := genesisHash
	expectedSeq := uint64(1)
	for _, e := range events {
		if e.Seq != expectedSeq || e.PrevHash != prevHash {
			return false, nil
		}
		hash, err := computeEventHash(prevHash, e.Kind, e.Payload)
		if err != nil {
			return false, err
		}
		if hash != e.Hash {
			return false, nil
		}
		prevHash = hash
		expectedSeq++
	}
	return true, nil
}

// StateReducerFunc folds one event into an accumulated projection value.
// Project uses this to replay a stream deterministically: identical streams
// always yield identical projected values, which is required for
// memoization soundness (C3 depends on this).
type StateReducerFunc func(acc WorkflowState, e Event) WorkflowState

// Project folds streamID's events, in order, through reduce starting from
// init, yielding the projected WorkflowState. The projection covers only
// what the stream holds: the scheduler keeps a run's WorkflowState in
// memory and appends step-emitted and approval events, not state deltas.
func (l *Ledger) Project(ctx context.Context, streamID string, reduce StateReducerFunc, init WorkflowState) (WorkflowState, error) {
	events, err := l.Load(ctx, streamID)
	if err != nil {
		if err == store.ErrNotFound {
			return init, nil
		}
		return WorkflowState{}, err
	}
	acc := init
	for _, e := range events {
		acc = reduce(acc, e)
	}
	return acc, nil
}

func toStoreEvent(e Event) store.Event {
	return store.Event{
		StreamID:  e.StreamID,
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		Payload:   e.Payload,
		PrevHash:  e.PrevHash,
		Hash:      e.Hash,
	}
}

func fromStoreEvent(e store.Event) Event {
	return Event{
		StreamID:  e.StreamID,
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		Payload:   e.Payload,
		PrevHash:  e.PrevHash,
		Hash:      e.Hash,
	}
}
