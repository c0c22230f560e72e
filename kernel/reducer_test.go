package kernel

import "testing"

func TestReducer_ReplacePolicy(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"x": PolicyReplace})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{}}
	s1, err := r.Reduce(s, Delta{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := r.Reduce(s1, Delta{"x": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := s2.Get("x"); v != 2 {
		t.Errorf("expected x=2, got %v", v)
	}
	if s2.Version != s1.Version+1 {
		t.Errorf("expected version to increment")
	}
}

func TestReducer_AppendPolicyConcatenates(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"log": PolicyAppend})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{}}
	s1, err := r.Reduce(s, Delta{"log": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := r.Reduce(s1, Delta{"log": []any{"c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s2.Get("log")
	want := []any{"a", "b", "c"}
	gotSlice, ok := got.([]any)
	if !ok || len(gotSlice) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if gotSlice[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], gotSlice[i])
		}
	}
}

func TestReducer_MergePolicyLastWriteWinsPerKey(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"attrs": PolicyMerge})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{}}
	s1, err := r.Reduce(s, Delta{"attrs": map[string]any{"a": 1, "b": 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := r.Reduce(s1, Delta{"attrs": map[string]any{"b": 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s2.Get("attrs")
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", got)
	}
	if m["a"] != 1 || m["b"] != 3 {
		t.Errorf("expected a=1,b=3 (last write wins), got %+v", m)
	}
}

func TestReducer_PurityAndRepeatability(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"x": PolicyReplace})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{"x": 1}}
	d := Delta{"x": 2}

	s1, err := r.Reduce(s, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := r.Reduce(s, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := s.Get("x"); v != 1 {
		t.Errorf("original state must be unmutated, got x=%v", v)
	}
	v1, _ := s1.Get("x")
	v2, _ := s2.Get("x")
	if v1 != v2 {
		t.Errorf("expected identical results for repeated invocation, got %v and %v", v1, v2)
	}
}

func TestReducer_UnknownFieldFails(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"x": PolicyReplace})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{}}
	if _, err := r.Reduce(s, Delta{"unknown": 1}); err == nil {
		t.Error("expected error for field absent from schema")
	}
}

func TestReducer_AppendPolicyWrongShapeFails(t *testing.T) {
	schema := NewStateSchema(map[string]FieldPolicy{"log": PolicyAppend})
	r := NewReducer(schema)

	s := WorkflowState{Fields: map[string]any{}}
	if _, err := r.Reduce(s, Delta{"log": "not-a-slice"}); err == nil {
		t.Error("expected error when append field delta is not []any")
	}
}
