package store

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMemStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	events := []Event{
		{Seq: 1, Kind: "StepStarted", Payload: json.RawMessage(`{"n":1}`), Hash: "sha256:a"},
		{Seq: 2, Kind: "StepCompleted", Payload: json.RawMessage(`{"n":2}`), Hash: "sha256:b"},
	}
	if err := s.Append(ctx, "run-1", events); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "StepStarted" || got[1].Kind != "StepCompleted" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestMemStoreLoadUnknownStream(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Load(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreAppendIsCumulative(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_ = s.Append(ctx, "run-1", []Event{{Seq: 1, Kind: "A"}})
	_ = s.Append(ctx, "run-1", []Event{{Seq: 2, Kind: "B"}})

	got, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
}

func TestMemStoreStreamsSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_ = s.Append(ctx, "b", []Event{{Seq: 1, Kind: "X"}})
	_ = s.Append(ctx, "a", []Event{{Seq: 1, Kind: "X"}})

	streams, err := s.Streams(ctx)
	if err != nil {
		t.Fatalf("streams: %v", err)
	}
	if len(streams) != 2 || streams[0] != "a" || streams[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", streams)
	}
}

func TestMemStoreAppendDoesNotAliasCaller(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	events := []Event{{Seq: 1, Kind: "A"}}
	_ = s.Append(ctx, "run-1", events)
	events[0].Kind = "mutated"

	got, _ := s.Load(ctx, "run-1")
	if got[0].Kind != "A" {
		t.Fatalf("store aliased caller slice, got %q", got[0].Kind)
	}
}
