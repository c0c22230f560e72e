package store

import (
	"context"
	"encoding/json"
	"testing"
)

func openTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLiteStore(t)

	events := []Event{
		{Seq: 1, Kind: "StepStarted", Payload: json.RawMessage(`{"n":1}`), PrevHash: "sha256:genesis", Hash: "sha256:a"},
		{Seq: 2, Kind: "StepCompleted", Payload: json.RawMessage(`{"n":2}`), PrevHash: "sha256:a", Hash: "sha256:b"},
	}
	if err := s.Append(ctx, "run-1", events); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 events, got %d", len(loaded))
	}
	if loaded[0].Kind != "StepStarted" || loaded[1].Kind != "StepCompleted" {
		t.Errorf("unexpected event kinds: %+v", loaded)
	}
	if string(loaded[0].Payload) != `{"n":1}` {
		t.Errorf("expected payload to round-trip, got %s", loaded[0].Payload)
	}
}

func TestSQLiteStoreAppendIsCumulative(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLiteStore(t)

	if err := s.Append(ctx, "run-1", []Event{{Seq: 1, Kind: "A", Payload: json.RawMessage(`{}`), Hash: "sha256:1"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "run-1", []Event{{Seq: 2, Kind: "B", Payload: json.RawMessage(`{}`), Hash: "sha256:2"}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 cumulative events, got %d", len(loaded))
	}
}

func TestSQLiteStoreLoadUnknownStream(t *testing.T) {
	s := openTestSQLiteStore(t)
	if _, err := s.Load(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreStreamsSorted(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLiteStore(t)

	for _, streamID := range []string{"run-b", "run-a", "run-c"} {
		if err := s.Append(ctx, streamID, []Event{{Seq: 1, Kind: "A", Payload: json.RawMessage(`{}`), Hash: "sha256:1"}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	streams, err := s.Streams(ctx)
	if err != nil {
		t.Fatalf("streams: %v", err)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if len(streams) != len(want) {
		t.Fatalf("expected %d streams, got %d: %v", len(want), len(streams), streams)
	}
	for i, id := range want {
		if streams[i] != id {
			t.Errorf("expected sorted streams %v, got %v", want, streams)
			break
		}
	}
}

func TestSQLiteStoreIsolatesStreams(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLiteStore(t)

	if err := s.Append(ctx, "run-1", []Event{{Seq: 1, Kind: "A", Payload: json.RawMessage(`{}`), Hash: "sha256:1"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "run-2", []Event{{Seq: 1, Kind: "B", Payload: json.RawMessage(`{}`), Hash: "sha256:2"}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded1, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load run-1: %v", err)
	}
	if len(loaded1) != 1 || loaded1[0].Kind != "A" {
		t.Errorf("expected run-1 to only see its own event, got %+v", loaded1)
	}
}
