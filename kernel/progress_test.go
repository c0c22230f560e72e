package kernel

import "testing"

func entry(executor, action, output string, progress bool) ProgressEntry {
	return ProgressEntry{ExecutorID: executor, Action: action, Output: output, ProgressMade: progress}
}

func TestLoopDetectorSoundnessNoFalsePositive(t *testing.T) {
	l := NewProgressLedger(DefaultLoopDetectionConfig())
	for i := 0; i < 10; i++ {
		l.Record(entry("A", "write", "unique output "+string(rune('a'+i)), true))
	}
	if _, ok := l.Detect(); ok {
		t.Fatal("expected no detection for a window with no duplicates and all progress made")
	}
}

func TestLoopDetectorExactRepetition(t *testing.T) {
	l := NewProgressLedger(DefaultLoopDetectionConfig())
	for i := 0; i < 10; i++ {
		l.Record(entry("A", "retry", "same", true))
	}
	res, ok := l.Detect()
	if !ok || res.Kind != ExactRepetition || res.Recovery != RecoveryInjectVariation {
		t.Fatalf("expected ExactRepetition/InjectVariation, got %+v ok=%v", res, ok)
	}
}

func TestLoopDetectorOscillation(t *testing.T) {
	l := NewProgressLedger(DefaultLoopDetectionConfig())
	l.Record(entry("A", "propose", "x", true))
	l.Record(entry("B", "critique", "y", true))
	l.Record(entry("A", "propose", "z", true))
	l.Record(entry("B", "critique", "w", true))
	res, ok := l.Detect()
	if !ok || res.Kind != Oscillation || res.Recovery != RecoverySynthesize {
		t.Fatalf("expected Oscillation/Synthesize, got %+v ok=%v", res, ok)
	}
}

func TestLoopDetectorNoProgressThenEscalate(t *testing.T) {
	cfg := DefaultLoopDetectionConfig()
	cfg.DecomposeBudget = 1
	l := NewProgressLedger(cfg)
	for i := 0; i < 10; i++ {
		l.Record(entry("A", "attempt", "fail "+string(rune('a'+i)), false))
	}

	first, ok := l.Detect()
	if !ok || first.Kind != NoProgress || first.Recovery != RecoveryDecompose {
		t.Fatalf("expected first NoProgress detection to Decompose, got %+v", first)
	}

	second, ok := l.Detect()
	if !ok || second.Kind != NoProgress || second.Recovery != RecoveryEscalate {
		t.Fatalf("expected second NoProgress detection to Escalate once budget exhausted, got %+v", second)
	}
}

func TestLoopDetectorPriorityOrderExactBeatsOscillation(t *testing.T) {
	// A window that could read as oscillation (ABAB) but also has an exact
	// repeated (executor, action, output) triple must report ExactRepetition
	// first, per the fixed priority order.
	l := NewProgressLedger(DefaultLoopDetectionConfig())
	l.Record(entry("A", "act", "same", true))
	l.Record(entry("B", "act", "diff1", true))
	l.Record(entry("A", "act", "same", true))
	l.Record(entry("B", "act", "diff2", true))
	res, ok := l.Detect()
	if !ok || res.Kind != ExactRepetition {
		t.Fatalf("expected ExactRepetition to win priority order, got %+v", res)
	}
}
