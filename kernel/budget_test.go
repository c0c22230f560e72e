package kernel

import "testing"

func TestBudgetExhaustionBlocks(t *testing.T) {
	b := NewBudget(map[ResourceType]float64{ResourceTokens: 100})
	b.Consume(ResourceTokens, 60)

	if v := b.Check(ResourceTokens, 10); v.Kind != VerdictSuccess {
		t.Fatalf("expected success with room remaining, got %+v", v)
	}

	b.Consume(ResourceTokens, 10)
	v := b.Check(ResourceTokens, 60)
	if v.Kind != VerdictBlocked {
		t.Fatalf("expected Blocked once proposed cost exceeds limit, got %+v", v)
	}
}

func TestBudgetUnlimitedResourceNeverBlocks(t *testing.T) {
	b := NewBudget(nil)
	b.Consume(ResourceTokens, 1_000_000)
	if v := b.Check(ResourceTokens, 1_000_000); v.Kind != VerdictSuccess {
		t.Fatalf("expected unlimited resource to always succeed, got %+v", v)
	}
}

func TestScarcityMonotonicity(t *testing.T) {
	b := NewBudget(map[ResourceType]float64{ResourceTokens: 100})

	prev := b.ScarcityFactor()
	steps := []float64{10, 20, 20, 20, 20}
	for _, amt := range steps {
		b.Consume(ResourceTokens, amt)
		cur := b.ScarcityFactor()
		if cur > prev {
			t.Fatalf("scarcity multiplier increased as consumption grew: prev=%v cur=%v", prev, cur)
		}
		prev = cur
	}
}

func TestScarcityTiers(t *testing.T) {
	cases := []struct {
		remainingFraction float64
		want              Scarcity
	}{
		{0.9, Abundant},
		{0.5, Normal},
		{0.2, Scarce},
		{0.05, Critical},
		{-0.1, Blocked},
	}
	for _, c := range cases {
		if got := classifyScarcity(c.remainingFraction); got != c.want {
			t.Errorf("classifyScarcity(%v) = %v, want %v", c.remainingFraction, got, c.want)
		}
	}
}
