package kernel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dshills/agentkernel/kernel/store"
)

func TestLedger_AppendAssignsDenseSeqAndChainsHashes(t *testing.T) {
	ledger := NewLedger(store.NewMemStore())
	ctx := context.Background()

	if err := ledger.Append(ctx, "run-1", []Event{
		{Kind: "Started", Payload: json.RawMessage(`{"n":1}`)},
		{Kind: "Stepped", Payload: json.RawMessage(`{"n":2}`)},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := ledger.Append(ctx, "run-1", []Event{
		{Kind: "Finished", Payload: json.RawMessage(`{"n":3}`)},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := ledger.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Seq != uint64(i+1) {
			t.Errorf("event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}
	if events[0].PrevHash != genesisHash {
		t.Errorf("expected first event's PrevHash to be genesis, got %q", events[0].PrevHash)
	}
	for i := 1; i < len(events); i++ {
		if events[i].PrevHash != events[i-1].Hash {
			t.Errorf("event %d: PrevHash does not chain to previous Hash", i)
		}
	}
}

func TestLedger_VerifyDetectsTampering(t *testing.T) {
	backend := store.NewMemStore()
	ledger := NewLedger(backend)
	ctx := context.Background()

	if err := ledger.Append(ctx, "run-1", []Event{
		{Kind: "Started", Payload: json.RawMessage(`{"n":1}`)},
		{Kind: "Stepped", Payload: json.RawMessage(`{"n":2}`)},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	ok, err := ledger.Verify(ctx, "run-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected untampered chain to verify")
	}

	// Tamper with the stored chain by rebuilding the stream in a fresh store
	// from the loaded events but with one payload altered after its hash was
	// already computed against the original payload, mirroring
	// post-hoc modification of a persisted record.
	events, err := backend.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tampered := store.NewMemStore()
	corrupted := make([]store.Event, len(events))
	copy(corrupted, events)
	corrupted[0].Payload = json.RawMessage(`{"n":999}`)
	if err := tampered.Append(ctx, "run-1", corrupted); err != nil {
		t.Fatalf("append corrupted events: %v", err)
	}

	tamperedLedger := NewLedger(tampered)
	ok, err = tamperedLedger.Verify(ctx, "run-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected tampered event to flip verify to false")
	}
}

func TestLedger_ProjectIsDeterministic(t *testing.T) {
	ledger := NewLedger(store.NewMemStore())
	ctx := context.Background()

	payload1, _ := json.Marshal(map[string]any{"x": float64(1)})
	payload2, _ := json.Marshal(map[string]any{"y": float64(2)})
	if err := ledger.Append(ctx, "run-1", []Event{
		{Kind: "SetX", Payload: payload1},
		{Kind: "SetY", Payload: payload2},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	reduce := func(acc WorkflowState, e Event) WorkflowState {
		var fields map[string]any
		_ = json.Unmarshal(e.Payload, &fields)
		next := make(map[string]any, len(acc.Fields)+len(fields))
		for k, v := range acc.Fields {
			next[k] = v
		}
		for k, v := range fields {
			next[k] = v
		}
		return WorkflowState{Fields: next, Version: acc.Version + 1}
	}

	init := WorkflowState{Fields: map[string]any{}}
	s1, err := ledger.Project(ctx, "run-1", reduce, init)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	s2, err := ledger.Project(ctx, "run-1", reduce, init)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if s1.Fields["x"] != s2.Fields["x"] || s1.Fields["y"] != s2.Fields["y"] {
		t.Errorf("expected identical projections, got %+v and %+v", s1.Fields, s2.Fields)
	}
}

func TestLedger_LoadUnknownStreamReturnsNotFound(t *testing.T) {
	ledger := NewLedger(store.NewMemStore())
	_, err := ledger.Load(context.Background(), "does-not-exist")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger_VerifyUnknownStreamIsVacuouslyTrue(t *testing.T) {
	ledger := NewLedger(store.NewMemStore())
	ok, err := ledger.Verify(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected an empty stream to verify vacuously")
	}
}
