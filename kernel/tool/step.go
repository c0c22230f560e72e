package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/agentkernel/kernel"
)

// StepHandler adapts a Tool into a kernel.StepHandler: it reads the tool's
// input from an input field of the run's WorkflowState, calls the tool, and
// writes the result under an output field, charging one ResourceToolCalls
// unit per invocation.
type StepHandler struct {
	Tool        Tool
	InputField  string
	OutputField string
}

// NewStepHandler wires t into the workflow state under inputField/outputField.
func NewStepHandler(t Tool, inputField, outputField string) *StepHandler {
	return &StepHandler{Tool: t, InputField: inputField, OutputField: outputField}
}

func (h *StepHandler) Execute(ctx context.Context, state kernel.WorkflowState, sc kernel.StepContext) (kernel.StepResult, error) {
	raw, ok := state.Get(h.InputField)
	if !ok {
		return kernel.StepResult{}, fmt.Errorf("tool: input field %q not set in workflow state", h.InputField)
	}
	input, ok := raw.(map[string]interface{})
	if !ok {
		return kernel.StepResult{}, fmt.Errorf("tool: input field %q is not a map[string]interface{}", h.InputField)
	}

	output, err := h.Tool.Call(ctx, input)
	if err != nil {
		return kernel.StepResult{}, fmt.Errorf("tool: %s: %w", h.Tool.Name(), err)
	}

	payload, err := json.Marshal(map[string]any{
		"tool":   h.Tool.Name(),
		"input":  input,
		"output": output,
	})
	if err != nil {
		return kernel.StepResult{}, fmt.Errorf("tool: marshal event payload: %w", err)
	}

	return kernel.StepResult{
		Delta: kernel.Delta{h.OutputField: output},
		Events: []kernel.Event{{
			StreamID: sc.RunID,
			Kind:     "ToolInvoked",
			Payload:  payload,
		}},
		ProgressEntry: kernel.ProgressEntry{
			TaskID:       sc.NodeID,
			ExecutorID:   h.Tool.Name(),
			Action:       "tool_call",
			Output:       h.Tool.Name(),
			ProgressMade: true,
		},
		DeltaCost: map[kernel.ResourceType]float64{kernel.ResourceToolCalls: 1},
	}, nil
}
