package kernel

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutorState enumerates the lifecycle states a ProgressEntry's executor
// may be in at the moment it recorded the entry.
type ExecutorState string

const (
	Executing ExecutorState = "Executing"
	Signaling ExecutorState = "Signaling"
	Waiting   ExecutorState = "Waiting"
	Completed ExecutorState = "Completed"
	Failed    ExecutorState = "Failed"
)

// ProgressEntry is one append-only record in the Progress Ledger (C5),
// chronologically ordered within a run.
type ProgressEntry struct {
	EntryID        string
	TaskID         string
	ExecutorID     string
	Action         string
	Output         string
	ProgressMade   bool
	Artifacts      []string
	Timestamp      time.Time
	Duration       time.Duration
	TokensConsumed uint64
	Signal         string
	ExecutorState  ExecutorState
}

// RecoveryStrategy is the directive a loop detector attaches to its match;
// the scheduler (C8) consumes it on the next tick without the detector
// itself mutating any state.
type RecoveryStrategy string

const (
	RecoveryNone             RecoveryStrategy = ""
	RecoveryInjectVariation  RecoveryStrategy = "InjectVariation"
	RecoveryForceRotation    RecoveryStrategy = "ForceRotation"
	RecoverySynthesize       RecoveryStrategy = "Synthesize"
	RecoveryDecompose        RecoveryStrategy = "Decompose"
	RecoveryEscalate         RecoveryStrategy = "Escalate"
)

// DetectorResult is what Detect returns on a match: which detector fired and
// its fixed recovery strategy, plus any detector-specific metadata the
// scheduler needs to apply the strategy (e.g. which executors to exclude for
// ForceRotation).
type DetectorResult struct {
	Kind             DetectorKind
	Recovery         RecoveryStrategy
	ExcludedExecutors []string
}

// ProgressLedger is the append-only, timestamp-ordered sequence of
// ProgressEntry records for one run (C5), grounded on the retrieved
// example's append-only observability event style (emit.Event), generalized
// into a typed ledger with its own loop-detection pass — the retrieved
// corpus has no loop detector, so Detect below is new code built in that
// append-only idiom.
type ProgressLedger struct {
	mu      sync.Mutex
	entries []ProgressEntry

	windowSize          int
	exactRepeatThresh   int
	semanticThreshold   float64
	decomposeBudget     int
	decomposeAttempts   int
}

// LoopDetectionConfig holds the tunables spec.md §6 names:
// loopDetection.windowSize (default 10), loopDetection.semanticThreshold
// (default 0.85). exactRepeatK is spec.md §4.5's default k=2.
// decomposeBudget bounds how many times NoProgress is allowed to retry
// Decompose before escalating.
type LoopDetectionConfig struct {
	WindowSize        int
	ExactRepeatK      int
	SemanticThreshold float64
	DecomposeBudget   int
}

// DefaultLoopDetectionConfig matches spec.md §4.5 / §6 defaults.
func DefaultLoopDetectionConfig() LoopDetectionConfig {
	return LoopDetectionConfig{WindowSize: 10, ExactRepeatK: 2, SemanticThreshold: 0.85, DecomposeBudget: 1}
}

// NewProgressLedger constructs an empty ledger with the given detector
// configuration.
func NewProgressLedger(cfg LoopDetectionConfig) *ProgressLedger {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.ExactRepeatK <= 0 {
		cfg.ExactRepeatK = 2
	}
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = 0.85
	}
	return &ProgressLedger{
		windowSize:        cfg.WindowSize,
		exactRepeatThresh: cfg.ExactRepeatK,
		semanticThreshold: cfg.SemanticThreshold,
		decomposeBudget:   cfg.DecomposeBudget,
	}
}

// Record appends entry, assigning EntryID/Timestamp if unset.
func (l *ProgressLedger) Record(entry ProgressEntry) ProgressEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a copy of every recorded entry, in order.
func (l *ProgressLedger) Entries() []ProgressEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ProgressEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func normalize(output string) string {
	return strings.TrimSpace(strings.ToLower(output))
}

// Detect evaluates the last WindowSize entries against the four detectors
// in their fixed priority order (Exact → Semantic → Oscillation →
// NoProgress); the first match wins. A window with no duplicates and all
// progressMade=true yields no match, satisfying the soundness invariant in
// spec.md §8.
func (l *ProgressLedger) Detect() (DetectorResult, bool) {
	l.mu.Lock()
	all := l.entries
	l.mu.Unlock()

	start := 0
	if len(all) > l.windowSize {
		start = len(all) - l.windowSize
	}
	window := all[start:]
	if len(window) == 0 {
		return DetectorResult{}, false
	}

	if res, ok := detectExactRepetition(window, l.exactRepeatThresh); ok {
		return res, true
	}
	if res, ok := detectSemanticRepetition(window, l.semanticThreshold); ok {
		return res, true
	}
	if res, ok := detectOscillation(window); ok {
		return res, true
	}
	if res, ok := l.detectNoProgress(window); ok {
		return res, true
	}
	return DetectorResult{}, false
}

func detectExactRepetition(window []ProgressEntry, k int) (DetectorResult, bool) {
	counts := make(map[string]int)
	for _, e := range window {
		key := e.ExecutorID + "\x00" + e.Action + "\x00" + normalize(e.Output)
		counts[key]++
		if counts[key] >= k {
			return DetectorResult{Kind: ExactRepetition, Recovery: RecoveryInjectVariation}, true
		}
	}
	return DetectorResult{}, false
}

// detectSemanticRepetition approximates cosine similarity over a lightweight
// bag-of-words embedding (no external embedding model is in scope for the
// kernel; §6 treats embeddings as externally supplied — here a deterministic
// term-frequency vector stands in for whatever embedding the caller wires
// in, since the detector only needs a similarity score, not the vector
// source).
func detectSemanticRepetition(window []ProgressEntry, threshold float64) (DetectorResult, bool) {
	pairs := 0
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			sim := cosineSimilarity(bagOfWords(window[i].Output), bagOfWords(window[j].Output))
			if sim > threshold {
				pairs++
				if pairs >= 2 {
					return DetectorResult{Kind: SemanticRepetition, Recovery: RecoveryForceRotation,
						ExcludedExecutors: []string{window[i].ExecutorID, window[j].ExecutorID}}, true
				}
			}
		}
	}
	return DetectorResult{}, false
}

func bagOfWords(s string) map[string]float64 {
	words := strings.Fields(normalize(s))
	bag := make(map[string]float64, len(words))
	for _, w := range words {
		bag[w]++
	}
	return bag
}

func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for k, v := range a {
		dot += v * b[k]
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func detectOscillation(window []ProgressEntry) (DetectorResult, bool) {
	if len(window) < 4 {
		return DetectorResult{}, false
	}
	tail := window[len(window)-4:]
	a, b := tail[0].ExecutorID, tail[1].ExecutorID
	if a == "" || b == "" || a == b {
		return DetectorResult{}, false
	}
	if tail[2].ExecutorID == a && tail[3].ExecutorID == b {
		return DetectorResult{Kind: Oscillation, Recovery: RecoverySynthesize}, true
	}
	return DetectorResult{}, false
}

func (l *ProgressLedger) detectNoProgress(window []ProgressEntry) (DetectorResult, bool) {
	for _, e := range window {
		if e.ProgressMade {
			return DetectorResult{}, false
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.decomposeAttempts < l.decomposeBudget {
		l.decomposeAttempts++
		return DetectorResult{Kind: NoProgress, Recovery: RecoveryDecompose}, true
	}
	return DetectorResult{Kind: NoProgress, Recovery: RecoveryEscalate}, true
}
