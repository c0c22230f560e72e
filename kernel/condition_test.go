package kernel

import "testing"

func TestConditionRegistryEvaluate(t *testing.T) {
	r := NewConditionRegistry()
	r.Register("testsPassed", func(s WorkflowState) bool {
		v, _ := s.Get("testsPassed")
		b, _ := v.(bool)
		return b
	})

	state := WorkflowState{Fields: map[string]any{"testsPassed": true}}
	ok, err := r.Evaluate("testsPassed", state)
	if err != nil || !ok {
		t.Fatalf("expected true, nil, got %v %v", ok, err)
	}
}

func TestConditionRegistryUnknown(t *testing.T) {
	r := NewConditionRegistry()
	if _, err := r.Evaluate("missing", WorkflowState{}); err == nil {
		t.Fatal("expected ErrUnknownCondition")
	}
}

func TestConditionRegistryHotReloadLastWriteWins(t *testing.T) {
	r := NewConditionRegistry()
	r.Register("c", func(WorkflowState) bool { return false })
	r.Register("c", func(WorkflowState) bool { return true })

	ok, err := r.Evaluate("c", WorkflowState{})
	if err != nil || !ok {
		t.Fatalf("expected re-registration to take effect (last write wins), got %v %v", ok, err)
	}
}
