package kernel

import "context"

// StepContext carries per-invocation metadata a StepHandler needs beyond the
// current state: which node/run it belongs to, the selected agent (if any),
// and the attempt number for retried steps.
type StepContext struct {
	RunID      string
	NodeID     string
	StepID     uint64
	AgentID    string
	Attempt    int
	Variation  bool // set by the loop detector's InjectVariation recovery
}

// StepResult is the Step handler contract's return value (spec.md §6):
// the state delta to reduce, the events to append, the progress entry to
// record, and the resource cost the Budget Guard should account for.
type StepResult struct {
	Delta        Delta
	Events       []Event
	ProgressEntry ProgressEntry
	DeltaCost    map[ResourceType]float64
}

// StepHandler is the contract a workflow author implements for a KindStep
// node (spec.md §6): execute(state, stepContext, cancelSignal) -> StepResult.
// Grounded on the retrieved example's `Node[S]` interface
// (`Run(ctx,state) NodeResult[S]`), generalized to return the richer
// StepResult tuple the spec's step-handler contract requires and to take an
// explicit StepContext rather than relying on context.Context values alone.
//
// Implementations must be deterministic given the same (state, stepContext),
// or must tolerate memoization being disabled — the same requirement
// spec.md §6 places on the external step handler.
type StepHandler interface {
	Execute(ctx context.Context, state WorkflowState, sc StepContext) (StepResult, error)
}

// StepHandlerFunc adapts a plain function to StepHandler.
type StepHandlerFunc func(ctx context.Context, state WorkflowState, sc StepContext) (StepResult, error)

// Execute implements StepHandler.
func (f StepHandlerFunc) Execute(ctx context.Context, state WorkflowState, sc StepContext) (StepResult, error) {
	return f(ctx, state, sc)
}
