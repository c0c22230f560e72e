package kernel

import (
	"context"
	"fmt"
	"time"
)

// stepTimeout resolves the timeout to enforce for a KindStep node: a
// per-node override if set, else the scheduler-wide default, else
// unbounded.
func stepTimeout(nodeTimeout, defaultTimeout time.Duration) time.Duration {
	if nodeTimeout > 0 {
		return nodeTimeout
	}
	return defaultTimeout
}

// runStepWithTimeout invokes handler under a derived context bounded by
// timeout (0 = unbounded), reporting a StepError with Recoverable: true when
// the step's own deadline elapses before it returns.
func runStepWithTimeout(ctx context.Context, handler StepHandler, state WorkflowState, sc StepContext, timeout time.Duration) (StepResult, error) {
	if timeout <= 0 {
		return handler.Execute(ctx, state, sc)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := handler.Execute(timeoutCtx, state, sc)
	if timeoutCtx.Err() == context.DeadlineExceeded {
		return result, &StepError{
			NodeID:      sc.NodeID,
			Recoverable: true,
			Cause:       fmt.Errorf("step exceeded timeout of %v", timeout),
		}
	}
	return result, err
}
