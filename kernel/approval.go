package kernel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ApprovalType enumerates the approval kinds from spec.md §3.
type ApprovalType string

const (
	LoopEscalation    ApprovalType = "LoopEscalation"
	GoalClarification ApprovalType = "GoalClarification"
	DataRequest       ApprovalType = "DataRequest"
	SafetyCheck       ApprovalType = "SafetyCheck"
	GeneralApproval   ApprovalType = "GeneralApproval"
)

// ApprovalOption is one selectable choice offered to the external reviewer,
// per the approval wire shape in spec.md §6.
type ApprovalOption struct {
	ID          string
	Label       string
	Description string
	IsDefault   bool
}

// ApprovalStatus is an Approval's lifecycle state: Pending → Decided |
// Expired.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalDecided  ApprovalStatus = "Decided"
	ApprovalExpired  ApprovalStatus = "Expired"
)

// Approval is the C10 record described in spec.md §3.
type Approval struct {
	ApprovalID   string
	WorkflowID   string
	Type         ApprovalType
	Options      []ApprovalOption
	Status       ApprovalStatus
	Decision     *Decision
	Deadline     time.Time
	RequestedAt  time.Time
}

// Decision is the external response to an approval request, per the
// approval wire shape in spec.md §6.
type Decision struct {
	ApprovalID   string
	Approved     bool
	OptionID     string
	Feedback     string
	ReviewerID   string
	DecisionTime time.Time
}

// ApprovalRequest is what a KindApproval node supplies when entering the
// coordinator.
type ApprovalRequest struct {
	WorkflowID     string
	Type           ApprovalType
	Options        []ApprovalOption
	StateSnapshot  WorkflowState
	Deadline       time.Time // zero = unbounded wait
}

// ApprovalCoordinator implements the Approval Coordinator (C10): on entering
// an Approval node, it emits ApprovalRequested and suspends the run; an
// external system calls Submit with a Decision, which emits ApprovalDecided
// and signals the waiter to resume. Grounded on the retrieved example's
// examples/human_in_the_loop pattern (an `Approved *bool` field checked by a
// single ad-hoc node, `Route: Stop()` to pause), generalized into a formal,
// typed coordinator backed by the event ledger rather than one workflow's
// own state field.
type ApprovalCoordinator struct {
	ledger *Ledger

	mu      sync.Mutex
	pending map[string]*pendingApproval
}

type pendingApproval struct {
	approval Approval
	resume   chan Decision
}

// NewApprovalCoordinator constructs a coordinator that records approval
// lifecycle events through ledger.
func NewApprovalCoordinator(ledger *Ledger) *ApprovalCoordinator {
	return &ApprovalCoordinator{ledger: ledger, pending: make(map[string]*pendingApproval)}
}

// RequestApproval emits ApprovalRequested and blocks until Submit is called
// for the generated approvalId, the optional deadline elapses (returning
// ErrApprovalTimeout), or ctx is cancelled (returning ErrCancelled).
func (c *ApprovalCoordinator) RequestApproval(ctx context.Context, streamID string, req ApprovalRequest) (Approval, error) {
	approvalID := uuid.NewString()
	approval := Approval{
		ApprovalID:  approvalID,
		WorkflowID:  req.WorkflowID,
		Type:        req.Type,
		Options:     req.Options,
		Status:      ApprovalPending,
		Deadline:    req.Deadline,
		RequestedAt: time.Now().UTC(),
	}

	if err := c.appendEvent(ctx, streamID, "ApprovalRequested", map[string]any{
		"approvalId": approvalID,
		"workflowId": req.WorkflowID,
		"type":       string(req.Type),
		"options":    req.Options,
	}); err != nil {
		return Approval{}, err
	}

	// Registered only after ApprovalRequested is on the ledger, so a Submit
	// can never record ApprovalDecided ahead of it.
	pending := &pendingApproval{approval: approval, resume: make(chan Decision, 1)}
	c.mu.Lock()
	c.pending[approvalID] = pending
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !req.Deadline.IsZero() {
		timer := time.NewTimer(time.Until(req.Deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case decision := <-pending.resume:
		c.mu.Lock()
		approval.Status = ApprovalDecided
		approval.Decision = &decision
		delete(c.pending, approvalID)
		c.mu.Unlock()
		return approval, nil
	case <-timeout:
		c.mu.Lock()
		approval.Status = ApprovalExpired
		delete(c.pending, approvalID)
		c.mu.Unlock()
		return approval, fmt.Errorf("%w: approval %s", ErrApprovalTimeout, approvalID)
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, approvalID)
		c.mu.Unlock()
		return approval, ErrCancelled
	}
}

// Submit delivers decision for a pending approvalId: it emits
// ApprovalDecided and signals the blocked RequestApproval call to resume.
// Returns ErrApprovalNotPending if approvalId is not currently pending
// (already decided, expired, or unknown).
func (c *ApprovalCoordinator) Submit(ctx context.Context, streamID string, decision Decision) error {
	c.mu.Lock()
	pending, ok := c.pending[decision.ApprovalID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrApprovalNotPending, decision.ApprovalID)
	}

	if decision.DecisionTime.IsZero() {
		decision.DecisionTime = time.Now().UTC()
	}

	if err := c.appendEvent(ctx, streamID, "ApprovalDecided", map[string]any{
		"approvalId":   decision.ApprovalID,
		"approved":     decision.Approved,
		"optionId":     decision.OptionID,
		"feedback":     decision.Feedback,
		"reviewerId":   decision.ReviewerID,
		"decisionTime": decision.DecisionTime,
	}); err != nil {
		return err
	}

	pending.resume <- decision
	return nil
}

// PendingCount returns the number of approvals currently awaiting a
// decision, for the C8 scheduler to publish as a gauge.
func (c *ApprovalCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Pending returns a snapshot of every approval currently awaiting a
// decision, for an operator-facing surface to discover approval ids to
// Submit against.
func (c *ApprovalCoordinator) Pending() []Approval {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Approval, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, p.approval)
	}
	return out
}

func (c *ApprovalCoordinator) appendEvent(ctx context.Context, streamID, kind string, payload any) error {
	if c.ledger == nil {
		return nil
	}
	raw, err := canonicalizeJSON(payload)
	if err != nil {
		return err
	}
	return c.ledger.Append(ctx, streamID, []Event{{Kind: kind, Payload: raw}})
}
