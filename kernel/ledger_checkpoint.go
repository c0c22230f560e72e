package kernel

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ErrReplayMismatch indicates a step handler's recorded I/O hash does not
// match what it produced on replay, meaning the handler is not deterministic
// given the same (state, StepContext) — a requirement spec.md §6 places on
// step handlers so memoized/replayed runs stay trustworthy.
var ErrReplayMismatch = errors.New("kernel: replay mismatch: recorded step output hash differs from replay")

// ErrIdempotencyViolation indicates a checkpoint commit reused an
// idempotency key already recorded for this run, which would otherwise
// double-apply a step's side effects on resume.
var ErrIdempotencyViolation = errors.New("kernel: checkpoint already committed")

// ErrMaxAttemptsExceeded indicates a step's retry policy was exhausted.
var ErrMaxAttemptsExceeded = errors.New("kernel: max retry attempts exceeded")

// RunCheckpoint is a durable snapshot of a single scheduler tick, enabling
// resumption after a process restart and deterministic replay of a run.
// Grounded on the retrieved example's generic Checkpoint[S], narrowed from a
// full frontier/RecordedIO snapshot to the concrete WorkflowState and cursor
// C8 needs: the event ledger already durably records every applied delta
// and emitted event, so a checkpoint only needs to capture where in the
// graph a run paused and the RNG seed to reproduce its Thompson draws.
type RunCheckpoint struct {
	RunID          string        `json:"run_id"`
	StepID         uint64        `json:"step_id"`
	NodeID         string        `json:"node_id"`
	State          WorkflowState `json:"state"`
	RNGSeed        int64         `json:"rng_seed"`
	IdempotencyKey string        `json:"idempotency_key"`
	Timestamp      time.Time     `json:"timestamp"`
	Label          string        `json:"label,omitempty"`
}

// computeIdempotencyKey derives a deterministic "sha256:"-prefixed key from
// (runID, stepID, nodeID, state), so resuming from the same checkpoint twice
// is detectable rather than silently re-applying a step's side effects.
func computeIdempotencyKey(runID string, stepID uint64, nodeID string, state WorkflowState) (string, error) {
	h := sha256.New()
	h.Write([]byte(runID))

	stepBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(stepBytes, stepID)
	h.Write(stepBytes)

	h.Write([]byte(nodeID))

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	h.Write(stateJSON)

	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
