package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/agentkernel/kernel"
)

type stubTool struct {
	name   string
	output map[string]interface{}
	err    error
	called map[string]interface{}
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Call(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	s.called = input
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func TestStepHandler_Execute(t *testing.T) {
	st := &stubTool{name: "echo", output: map[string]interface{}{"ok": true}}
	h := NewStepHandler(st, "request", "response")

	state := kernel.WorkflowState{Fields: map[string]any{
		"request": map[string]interface{}{"msg": "hi"},
	}}

	result, err := h.Execute(context.Background(), state, kernel.StepContext{RunID: "run-1", NodeID: "node-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.called["msg"] != "hi" {
		t.Errorf("expected tool to receive input, got %+v", st.called)
	}
	out, ok := result.Delta["response"].(map[string]interface{})
	if !ok || out["ok"] != true {
		t.Errorf("expected delta to carry tool output, got %+v", result.Delta)
	}
	if len(result.Events) != 1 || result.Events[0].Kind != "ToolInvoked" {
		t.Errorf("expected one ToolInvoked event, got %+v", result.Events)
	}
	if result.DeltaCost[kernel.ResourceToolCalls] != 1 {
		t.Errorf("expected 1 tool-call unit charged, got %v", result.DeltaCost)
	}
	if !result.ProgressEntry.ProgressMade {
		t.Error("expected ProgressMade true")
	}
}

func TestStepHandler_MissingInputField(t *testing.T) {
	h := NewStepHandler(&stubTool{name: "echo"}, "request", "response")
	state := kernel.WorkflowState{Fields: map[string]any{}}

	if _, err := h.Execute(context.Background(), state, kernel.StepContext{}); err == nil {
		t.Fatal("expected error for missing input field")
	}
}

func TestStepHandler_ToolError(t *testing.T) {
	st := &stubTool{name: "echo", err: errors.New("boom")}
	h := NewStepHandler(st, "request", "response")
	state := kernel.WorkflowState{Fields: map[string]any{"request": map[string]interface{}{}}}

	if _, err := h.Execute(context.Background(), state, kernel.StepContext{}); err == nil {
		t.Fatal("expected error propagated from tool")
	}
}
