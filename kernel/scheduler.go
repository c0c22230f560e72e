package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/agentkernel/kernel/emit"
	"github.com/dshills/agentkernel/kernel/store"
)

// initRNG seeds a *rand.Rand deterministically from runID, so two runs with
// the same id draw the same Thompson samples and retry jitter. Grounded on
// the retrieved example's initRNG(runID) helper.
func initRNG(runID string) *rand.Rand {
	return rand.New(rand.NewSource(seedFromRunID(runID))) //nolint:gosec // deterministic replay, not security
}

// Engine is the Scheduler (C8): it ties C1 (Reducer), C2 (Ledger), C3
// (Cache), C4 (Sampler), C5 (ProgressLedger), C6 (Budget), C7 (Graph), C9
// (ConditionRegistry) and C10 (ApprovalCoordinator) together into the
// per-tick execution loop described in spec.md §4.8. Grounded on the
// retrieved example's Engine[S], narrowed from a generic reducer/node engine
// to the fixed seven-node-kind Workflow Graph IR and generalized with the
// memoization, scarcity, bandit-selection and loop-detection machinery the
// generic engine never had.
type Engine struct {
	graph      *Graph
	schema     StateSchema
	reducer    *Reducer
	ledger     *Ledger
	cache      *Cache
	beliefs    *BeliefStore
	conditions *ConditionRegistry
	approvals  *ApprovalCoordinator
	emitter    emit.Emitter
	cfg        Config

	mu      sync.Mutex
	budgets map[string]*Budget // per-run budget, keyed by runID
}

// NewEngine wires a Scheduler around graph (already validated against
// conditions by the caller) and backend, applying opts over DefaultConfig.
func NewEngine(graph *Graph, schema StateSchema, conditions *ConditionRegistry, backend store.EventStore, opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ledger := NewLedger(backend)
	e := &Engine{
		graph:      graph,
		schema:     schema,
		reducer:    NewReducer(schema),
		ledger:     ledger,
		beliefs:    NewBeliefStore(cfg.ThompsonPriorAlpha, cfg.ThompsonPriorBeta),
		conditions: conditions,
		approvals:  NewApprovalCoordinator(ledger),
		emitter:    cfg.Emitter,
		cfg:        cfg,
		budgets:    make(map[string]*Budget),
	}
	if cfg.CacheBounded {
		cache, err := NewBoundedCache(cfg.CacheCapacity)
		if err != nil {
			cache = NewUnboundedCache()
		}
		e.cache = cache
	} else {
		e.cache = NewUnboundedCache()
	}
	return e
}

// Approvals returns the Approval Coordinator (C10) backing this engine, so
// an operator-facing surface (CLI, HTTP handler) can call Submit to resolve
// an approval a run is blocked on.
func (e *Engine) Approvals() *ApprovalCoordinator {
	return e.approvals
}

// emit forwards a single observability event to the configured Emitter
// (spec.md §2). Every user-observable occurrence the tick loop produces
// flows through here, so swapping in a NullEmitter, a LogEmitter or an
// OTelEmitter changes nothing about scheduling, only what gets recorded.
func (e *Engine) emit(runID string, step int, nodeID, msg string, meta map[string]interface{}) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: msg, Meta: meta})
}

// tickState is the mutable per-run state threaded through the scheduler
// loop: the cursor (current node), loop-iteration counters keyed by loop
// node id, and the progress ledger driving loop detection.
type tickState struct {
	cursor    string
	stepID    uint64
	iterCount map[string]int
	progress  *ProgressLedger
	rng       *rand.Rand
	sampler   *Sampler

	// variationNodes/excludedAgents carry a loop-detector recovery hint
	// (spec.md §4.5 InjectVariation/ForceRotation) from the tick that
	// detected the loop to the next tick that re-enters the same node,
	// since the detecting tick has already advanced past it.
	variationNodes map[string]bool
	excludedAgents map[string][]string
}

// Run executes the workflow graph for runID starting from initial, driving
// the scheduler tick loop until a Terminal node is reached, the budget is
// exhausted, an unrecoverable step fails, or ctx is cancelled. Returns the
// final projected state and the run's terminal status.
func (e *Engine) Run(ctx context.Context, runID string, initial WorkflowState) (WorkflowState, RunStatus, error) {
	streamID := runID
	state := initial
	state.WorkflowID = runID

	e.mu.Lock()
	budget, ok := e.budgets[runID]
	if !ok {
		budget = NewBudget(e.cfg.BudgetLimits)
		e.budgets[runID] = budget
	}
	e.mu.Unlock()

	samplerOpts := []SamplerOption{}
	if e.cfg.ThompsonConfidenceThreshold > 0 {
		samplerOpts = append(samplerOpts, WithConfidenceThreshold(e.cfg.ThompsonConfidenceThreshold))
	}
	ts := &tickState{
		cursor:         e.graph.Entry(),
		iterCount:      make(map[string]int),
		progress:       NewProgressLedger(e.cfg.LoopDetection),
		rng:            initRNG(runID),
		sampler:        NewSampler(e.beliefs, runID, samplerOpts...),
		variationNodes: make(map[string]bool),
		excludedAgents: make(map[string][]string),
	}

	e.emit(runID, 0, "", "run_start", map[string]interface{}{"entry_node": ts.cursor})

	for {
		select {
		case <-ctx.Done():
			e.emit(runID, int(ts.stepID), ts.cursor, "run_cancelled", map[string]interface{}{"error": ctx.Err().Error()})
			return state, RunCancelled, ctx.Err()
		default:
		}

		node := e.graph.Node(ts.cursor)
		if node == nil {
			e.emit(runID, int(ts.stepID), ts.cursor, "run_failed", map[string]interface{}{"error": "unknown node"})
			return state, RunFailed, fmt.Errorf("%w: cursor at unknown node %q", ErrValidationFailed, ts.cursor)
		}

		if node.Kind == KindTerminal {
			e.emit(runID, int(ts.stepID), node.ID, "run_completed", nil)
			return state, RunCompleted, nil
		}

		next, newState, status, err := e.tick(ctx, streamID, runID, node, state, ts, budget)
		state = newState
		if status != "" {
			e.emit(runID, int(ts.stepID), node.ID, "run_"+strings.ToLower(string(status)), map[string]interface{}{"error": errString(err)})
			return state, status, err
		}
		if err != nil {
			e.emit(runID, int(ts.stepID), node.ID, "run_failed", map[string]interface{}{"error": errString(err)})
			return state, RunFailed, err
		}
		ts.cursor = next
		ts.stepID++
	}
}

// tick executes one scheduler step, dispatching on node.Kind per spec.md
// §4.8, and returns the next cursor, the (possibly updated) state, and a
// non-empty RunStatus only when the run has reached a terminal condition
// other than simply advancing.
func (e *Engine) tick(ctx context.Context, streamID, runID string, node *Node, state WorkflowState, ts *tickState, budget *Budget) (string, WorkflowState, RunStatus, error) {
	switch node.Kind {
	case KindStep:
		return e.tickStep(ctx, streamID, runID, node, state, ts, budget)
	case KindBranch:
		return e.tickBranch(runID, ts, node, state)
	case KindLoop:
		return e.tickLoop(runID, ts, node, state)
	case KindFork:
		return e.tickFork(ctx, streamID, runID, node, state, ts, budget)
	case KindApproval:
		return e.tickApproval(ctx, streamID, runID, node, state, ts)
	default:
		return "", state, "", fmt.Errorf("%w: node %q has unhandled kind", ErrValidationFailed, node.ID)
	}
}

func (e *Engine) tickBranch(runID string, ts *tickState, node *Node, state WorkflowState) (string, WorkflowState, RunStatus, error) {
	for _, c := range node.Cases {
		ok, err := e.conditions.Evaluate(c.PredicateID, state)
		if err != nil {
			return "", state, "", err
		}
		if ok {
			e.emit(runID, int(ts.stepID), node.ID, "branch_taken", map[string]interface{}{"predicate_id": c.PredicateID, "to": c.To})
			return c.To, state, "", nil
		}
	}
	if node.Default != "" {
		e.emit(runID, int(ts.stepID), node.ID, "branch_taken", map[string]interface{}{"predicate_id": "", "to": node.Default, "default": true})
		return node.Default, state, "", nil
	}
	return "", state, "", fmt.Errorf("%w: branch %q: no case matched and no default", ErrValidationFailed, node.ID)
}

func (e *Engine) tickLoop(runID string, ts *tickState, node *Node, state WorkflowState) (string, WorkflowState, RunStatus, error) {
	if node.ExitConditionID != "" {
		exit, err := e.conditions.Evaluate(node.ExitConditionID, state)
		if err != nil {
			return "", state, "", err
		}
		if exit {
			e.emit(runID, int(ts.stepID), node.ID, "loop_exit", map[string]interface{}{"iterations": ts.iterCount[node.ID]})
			ts.iterCount[node.ID] = 0
			return node.After, state, "", nil
		}
	}
	ts.iterCount[node.ID]++
	if ts.iterCount[node.ID] > node.MaxIterations {
		e.emit(runID, int(ts.stepID), node.ID, "loop_max_iterations", map[string]interface{}{"max_iterations": node.MaxIterations})
		ts.iterCount[node.ID] = 0
		if node.After != "" {
			return node.After, state, "", nil
		}
		return "", state, "", fmt.Errorf("%w: loop %q exceeded maxIterations with no After route", ErrValidationFailed, node.ID)
	}
	e.emit(runID, int(ts.stepID), node.ID, "loop_iteration", map[string]interface{}{"iteration": ts.iterCount[node.ID]})
	return node.Body, state, "", nil
}

func (e *Engine) tickApproval(ctx context.Context, streamID, runID string, node *Node, state WorkflowState, ts *tickState) (string, WorkflowState, RunStatus, error) {
	e.emit(runID, int(ts.stepID), node.ID, "approval_requested", map[string]interface{}{"workflow_id": state.WorkflowID})
	approval, err := e.approvals.RequestApproval(ctx, streamID, ApprovalRequest{
		WorkflowID:    state.WorkflowID,
		StateSnapshot: state,
	})
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.SetPendingApprovals(e.approvals.PendingCount())
	}
	if err != nil {
		if errors.Is(err, ErrApprovalTimeout) {
			e.emit(runID, int(ts.stepID), node.ID, "approval_timeout", map[string]interface{}{"error": err.Error()})
			return "", state, RunEscalated, err
		}
		e.emit(runID, int(ts.stepID), node.ID, "approval_cancelled", map[string]interface{}{"error": err.Error()})
		return "", state, RunCancelled, err
	}
	if approval.Decision != nil && !approval.Decision.Approved {
		e.emit(runID, int(ts.stepID), node.ID, "approval_rejected", map[string]interface{}{"approval_id": approval.ApprovalID})
		return "", state, RunEscalated, fmt.Errorf("approval %s rejected", approval.ApprovalID)
	}
	e.emit(runID, int(ts.stepID), node.ID, "approval_approved", map[string]interface{}{"approval_id": approval.ApprovalID})
	return node.Next, state, "", nil
}

// tickStep implements the Step node dispatch from spec.md §4.8: cache
// check, budget admission, agent selection, handler invocation, then
// reduce/append/update on success or retry/route on failure, with a
// loop-detector recovery override evaluated after recording progress.
func (e *Engine) tickStep(ctx context.Context, streamID, runID string, node *Node, state WorkflowState, ts *tickState, budget *Budget) (string, WorkflowState, RunStatus, error) {
	inputHash, err := ComputeInputHash(struct {
		NodeID string
		State  WorkflowState
	}{node.ID, state})
	if err != nil {
		return "", state, "", err
	}

	if node.CacheTTL > 0 {
		entry, hit := e.cache.TryGet(node.ID, inputHash)
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordCacheLookup(node.ID, hit)
		}
		if hit {
			var delta Delta
			if err := unmarshalJSON(entry.ResultJSON, &delta); err == nil {
				newState, err := e.reducer.Reduce(state, delta)
				if err != nil {
					return "", state, "", err
				}
				e.emit(runID, int(ts.stepID), node.ID, "cache_hit", map[string]interface{}{"input_hash": inputHash})
				return node.To, newState, "", nil
			}
		}
		e.emit(runID, int(ts.stepID), node.ID, "cache_miss", map[string]interface{}{"input_hash": inputHash})
	}

	verdict := budget.Check(ResourceSteps, 1)
	if verdict.Kind == VerdictBlocked {
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.IncrementBudgetBlocked(runID, ResourceSteps)
		}
		e.emit(runID, int(ts.stepID), node.ID, "budget_blocked", map[string]interface{}{"resource": ResourceSteps.String(), "reason": verdict.Reason})
		return "", state, RunBudgetExhausted, fmt.Errorf("%w: %s", ErrBudgetExhausted, verdict.Reason)
	}

	scarcity := budget.ScarcityFactor()

	variation := ts.variationNodes[node.ID]
	delete(ts.variationNodes, node.ID)
	excluded := ts.excludedAgents[node.ID]
	delete(ts.excludedAgents, node.ID)

	agentID := ""
	if len(node.Candidates) > 0 {
		candidates := node.Candidates
		if len(excluded) > 0 {
			candidates = excludeCandidates(candidates, excluded)
		}
		if len(candidates) == 0 {
			return "", state, "", fmt.Errorf("%w: all candidates excluded by loop-detector recovery", ErrNoEligibleAgent)
		}
		selected, err := ts.sampler.Select(candidates, node.Task, scarcity)
		if err != nil {
			return "", state, "", err
		}
		agentID = selected
	}

	attempt := 0
	maxAttempts := node.RetryLimit + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var retryPolicy *RetryPolicy
	if node.Retry != nil {
		retryPolicy = node.Retry
	}

	var lastErr error
	for attempt < maxAttempts {
		sc := StepContext{RunID: runID, NodeID: node.ID, StepID: ts.stepID, AgentID: agentID, Attempt: attempt, Variation: variation}
		e.emit(runID, int(ts.stepID), node.ID, "step_start", map[string]interface{}{"agent_id": agentID, "attempt": attempt, "variation": variation})
		stepStart := time.Now()
		result, err := runStepWithTimeout(ctx, node.Handler, state, sc, node.Timeout)
		duration := time.Since(stepStart)
		if e.cfg.Metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			e.cfg.Metrics.RecordStepLatency(runID, node.ID, duration, status)
		}
		if err == nil {
			e.emit(runID, int(ts.stepID), node.ID, "step_complete", map[string]interface{}{"agent_id": agentID, "attempt": attempt, "duration_ms": duration.Milliseconds()})
			budget.Consume(ResourceSteps, 1)
			for resource, cost := range result.DeltaCost {
				budget.Consume(resource, cost)
			}

			newState, err := e.reducer.Reduce(state, result.Delta)
			if err != nil {
				return "", state, "", err
			}

			if len(result.Events) > 0 {
				if err := e.ledger.Append(ctx, streamID, result.Events); err != nil {
					return "", state, "", err
				}
			}

			entry := result.ProgressEntry
			if entry.ExecutorID == "" {
				entry.ExecutorID = agentID
			}
			ts.progress.Record(entry)

			if agentID != "" {
				e.beliefs.Update(agentID, node.Task.Category, true)
			}
			if node.CacheTTL > 0 {
				if raw, err := marshalJSON(result.Delta); err == nil {
					e.cache.Put(node.ID, inputHash, raw, node.CacheTTL)
				}
			}

			if detected, found := ts.progress.Detect(); found {
				if e.cfg.Metrics != nil {
					e.cfg.Metrics.IncrementLoopDetected(runID, detected.Kind)
				}
				e.emit(runID, int(ts.stepID), node.ID, "loop_detected", map[string]interface{}{"kind": detected.Kind.String(), "recovery": string(detected.Recovery)})
				if next, status, err := e.applyRecovery(ctx, streamID, node, detected, ts); status != "" || err != nil {
					return next, newState, status, err
				} else if next != "" {
					return next, newState, "", nil
				}
			}

			return node.To, newState, "", nil
		}

		lastErr = err
		var stepErr *StepError
		recoverable := errors.As(err, &stepErr) && stepErr.Recoverable
		if agentID != "" {
			e.beliefs.Update(agentID, node.Task.Category, false)
		}
		if !recoverable {
			e.emit(runID, int(ts.stepID), node.ID, "step_failed", map[string]interface{}{"agent_id": agentID, "attempt": attempt, "error": err.Error(), "recoverable": false})
			break
		}
		if retryPolicy != nil && retryPolicy.Retryable != nil && !retryPolicy.Retryable(err) {
			e.emit(runID, int(ts.stepID), node.ID, "step_failed", map[string]interface{}{"agent_id": agentID, "attempt": attempt, "error": err.Error(), "recoverable": true, "reason": "not_retryable"})
			break
		}
		attempt++
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.IncrementRetries(runID, node.ID)
		}
		e.emit(runID, int(ts.stepID), node.ID, "step_retry", map[string]interface{}{"agent_id": agentID, "attempt": attempt, "error": err.Error()})
		if attempt < maxAttempts {
			base, maxDelay := e.cfg.RetryBaseDelay, e.cfg.RetryMaxDelay
			if retryPolicy != nil {
				base, maxDelay = retryPolicy.BaseDelay, retryPolicy.MaxDelay
			}
			if base > 0 {
				delay := computeBackoff(attempt-1, base, maxDelay, ts.rng)
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return "", state, RunCancelled, ctx.Err()
				}
			}
		}
	}

	if node.OnFailure != "" {
		return node.OnFailure, state, "", nil
	}
	return "", state, RunFailed, fmt.Errorf("%w", &StepError{NodeID: node.ID, Recoverable: false, Cause: lastErr})
}

// applyRecovery maps a detected loop into a scheduler action per spec.md
// §4.5: InjectVariation/ForceRotation flag node.ID in ts so the next tick
// that re-enters it carries the variation hint (StepContext.Variation) or
// an agent-selection exclusion list, Decompose routes to an author-declared
// recovery node (the node's OnFailure route, repurposed as the designated
// recovery target), and Escalate suspends the run for human approval via
// C10.
func (e *Engine) applyRecovery(ctx context.Context, streamID string, node *Node, detected DetectorResult, ts *tickState) (string, RunStatus, error) {
	switch detected.Recovery {
	case RecoveryEscalate:
		e.emit(streamID, int(ts.stepID), node.ID, "loop_escalation_requested", map[string]interface{}{"kind": detected.Kind.String()})
		approval, err := e.approvals.RequestApproval(ctx, streamID, ApprovalRequest{
			Type:    LoopEscalation,
			Options: []ApprovalOption{{ID: "continue", Label: "Continue"}, {ID: "abort", Label: "Abort"}},
		})
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.SetPendingApprovals(e.approvals.PendingCount())
		}
		if err != nil {
			return "", RunEscalated, err
		}
		if approval.Decision != nil && !approval.Decision.Approved {
			e.emit(streamID, int(ts.stepID), node.ID, "loop_escalation_rejected", map[string]interface{}{"approval_id": approval.ApprovalID})
			return "", RunEscalated, fmt.Errorf("%w: %s", &LoopDetected{Kind: detected.Kind}, "escalation rejected")
		}
		e.emit(streamID, int(ts.stepID), node.ID, "loop_escalation_approved", map[string]interface{}{"approval_id": approval.ApprovalID})
		return node.To, "", nil
	case RecoveryDecompose:
		e.emit(streamID, int(ts.stepID), node.ID, "loop_recovery_decompose", nil)
		if node.OnFailure != "" {
			return node.OnFailure, "", nil
		}
		return node.To, "", nil
	case RecoveryInjectVariation:
		e.emit(streamID, int(ts.stepID), node.ID, "loop_recovery_inject_variation", nil)
		ts.variationNodes[node.ID] = true
		return "", "", nil
	case RecoveryForceRotation:
		e.emit(streamID, int(ts.stepID), node.ID, "loop_recovery_force_rotation", map[string]interface{}{"excluded_executors": detected.ExcludedExecutors})
		if len(detected.ExcludedExecutors) > 0 {
			ts.excludedAgents[node.ID] = append(ts.excludedAgents[node.ID], detected.ExcludedExecutors...)
		}
		return "", "", nil
	default:
		// RecoveryNone: continue normally, nothing to flag for next entry.
		return "", "", nil
	}
}

// excludeCandidates returns the subset of candidates whose AgentID is not in
// excluded.
func excludeCandidates(candidates []AgentCandidate, excluded []string) []AgentCandidate {
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}
	out := make([]AgentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !skip[c.AgentID] {
			out = append(out, c)
		}
	}
	return out
}

// tickFork executes a Fork's branches concurrently against state, merges
// their deltas deterministically by OrderKey, and continues at the matching
// Join's Forward node. Grounded on the retrieved example's executeParallel,
// narrowed to the Fork/Join IR nodes and generalized to StepResult deltas.
func (e *Engine) tickFork(ctx context.Context, streamID, runID string, node *Node, state WorkflowState, ts *tickState, budget *Budget) (string, WorkflowState, RunStatus, error) {
	items := forkBranches(node.ID, node.Branches)
	e.emit(runID, int(ts.stepID), node.ID, "fork_start", map[string]interface{}{"branches": len(items)})

	type branchOutcome struct {
		orderKey uint64
		delta    Delta
		err      error
	}

	results := make(chan branchOutcome, len(items))
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem) {
			defer wg.Done()
			branchNode := e.graph.Node(item.NodeID)
			if branchNode == nil || branchNode.Kind != KindStep {
				results <- branchOutcome{orderKey: item.OrderKey, err: fmt.Errorf("%w: fork branch %q is not a step", ErrValidationFailed, item.NodeID)}
				return
			}
			sc := StepContext{RunID: runID, NodeID: branchNode.ID, StepID: ts.stepID, Attempt: 0}
			result, err := runStepWithTimeout(ctx, branchNode.Handler, state, sc, branchNode.Timeout)
			if err != nil {
				e.emit(runID, int(ts.stepID), branchNode.ID, "fork_branch_failed", map[string]interface{}{"order_key": item.OrderKey, "error": err.Error()})
				results <- branchOutcome{orderKey: item.OrderKey, err: err}
				return
			}
			if len(result.Events) > 0 {
				if appendErr := e.ledger.Append(ctx, streamID, result.Events); appendErr != nil {
					results <- branchOutcome{orderKey: item.OrderKey, err: appendErr}
					return
				}
			}
			budget.Consume(ResourceSteps, 1)
			e.emit(runID, int(ts.stepID), branchNode.ID, "fork_branch_complete", map[string]interface{}{"order_key": item.OrderKey})
			results <- branchOutcome{orderKey: item.OrderKey, delta: result.Delta}
		}(item)
	}
	wg.Wait()
	close(results)

	outcomes := make([]branchOutcome, 0, len(items))
	for r := range results {
		outcomes = append(outcomes, r)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].orderKey < outcomes[j].orderKey })

	merged := state
	for _, o := range outcomes {
		if o.err != nil {
			return "", state, RunFailed, o.err
		}
		newState, err := e.reducer.Reduce(merged, o.delta)
		if err != nil {
			return "", state, "", err
		}
		merged = newState
	}

	join := e.graph.Node(node.JoinID)
	if join == nil {
		return "", merged, "", fmt.Errorf("%w: fork %q join %q not found", ErrValidationFailed, node.ID, node.JoinID)
	}
	e.emit(runID, int(ts.stepID), join.ID, "fork_join", map[string]interface{}{"branches": len(outcomes)})
	return join.Forward, merged, "", nil
}

func marshalJSON(v any) ([]byte, error)   { return canonicalizeJSON(v) }
func unmarshalJSON(b []byte, v any) error { return json.Unmarshal(b, v) }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
