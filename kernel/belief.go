package kernel

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// AgentBelief is the per-(agentId, taskCategory) Beta(α,β) posterior the
// Thompson Sampler draws from (C4).
type AgentBelief struct {
	AgentID          string
	TaskCategory     string
	Alpha            float64
	Beta             float64
	ObservationCount uint64
	UpdatedAt        time.Time
}

// DefaultPriorAlpha and DefaultPriorBeta are the Beta(2,2) priors spec.md
// §4.4 specifies unless a caller overrides them via BeliefStoreOption.
const (
	DefaultPriorAlpha = 2.0
	DefaultPriorBeta  = 2.0
)

type beliefKey struct {
	agentID  string
	category string
}

// BeliefStore holds AgentBelief posteriors keyed by (agentId, taskCategory),
// updated atomically per key — the same per-key-atomicity idiom the
// retrieved example applies to its cost/metrics accumulators: one mutex
// guards the whole map, since keys are created lazily and unboundedly.
type BeliefStore struct {
	mu        sync.Mutex
	beliefs   map[beliefKey]*AgentBelief
	priorA    float64
	priorB    float64
}

// NewBeliefStore constructs a BeliefStore using Beta(priorAlpha, priorBeta)
// as the prior for any (agentId, category) pair seen for the first time. Pass
// DefaultPriorAlpha/DefaultPriorBeta for the spec default.
func NewBeliefStore(priorAlpha, priorBeta float64) *BeliefStore {
	if priorAlpha <= 0 {
		priorAlpha = DefaultPriorAlpha
	}
	if priorBeta <= 0 {
		priorBeta = DefaultPriorBeta
	}
	return &BeliefStore{
		beliefs: make(map[beliefKey]*AgentBelief),
		priorA:  priorAlpha,
		priorB:  priorBeta,
	}
}

// Get returns the current belief for (agentID, category), creating a fresh
// Beta(priorAlpha, priorBeta) prior on first read.
func (b *BeliefStore) Get(agentID, category string) AgentBelief {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.getLocked(agentID, category)
}

func (b *BeliefStore) getLocked(agentID, category string) *AgentBelief {
	key := beliefKey{agentID, category}
	belief, ok := b.beliefs[key]
	if !ok {
		belief = &AgentBelief{
			AgentID:      agentID,
			TaskCategory: category,
			Alpha:        b.priorA,
			Beta:         b.priorB,
			UpdatedAt:    time.Now().UTC(),
		}
		b.beliefs[key] = belief
	}
	return belief
}

// Update applies a single Bernoulli observation: success increments Alpha,
// failure increments Beta; ObservationCount always increments. Alpha and
// Beta remain strictly positive by construction (priors are positive and
// only ever incremented).
func (b *BeliefStore) Update(agentID, category string, success bool) AgentBelief {
	b.mu.Lock()
	defer b.mu.Unlock()
	belief := b.getLocked(agentID, category)
	if success {
		belief.Alpha++
	} else {
		belief.Beta++
	}
	belief.ObservationCount++
	belief.UpdatedAt = time.Now().UTC()
	return *belief
}

// TaskFeatures describes the task a candidate agent is being selected for
// (C4/C7 boundary): its category and required capability bitset.
type TaskFeatures struct {
	Category             string
	Complexity            float64
	RequiredCapabilities  uint64
}

// AgentCandidate is one selectable agent and its capability bitset (for
// feasibility filtering). The observation count used for tie-breaking is
// read from the BeliefStore, not carried here.
type AgentCandidate struct {
	AgentID      string
	Capabilities uint64
}

func (a AgentCandidate) satisfies(required uint64) bool {
	return required&a.Capabilities == required
}

// Sampler implements Thompson Sampling agent selection over a BeliefStore
// (C4). It holds its own deterministically-seeded RNG so selection is
// reproducible under the same replay contract the scheduler offers for step
// execution — seeding by runID mirrors the retrieved example's
// initRNG(runID) convention.
type Sampler struct {
	beliefs             *BeliefStore
	rng                 *rand.Rand
	confidenceThreshold float64
	defaultAgent        string
}

// SamplerOption configures a Sampler at construction.
type SamplerOption func(*Sampler)

// WithConfidenceThreshold sets the minimum sampled θ below which the
// sampler falls back to the configured default agent (spec.md §4.4).
func WithConfidenceThreshold(threshold float64) SamplerOption {
	return func(s *Sampler) { s.confidenceThreshold = threshold }
}

// WithDefaultAgent sets the designated fallback agent id used when the
// selected candidate's confidence is below threshold.
func WithDefaultAgent(agentID string) SamplerOption {
	return func(s *Sampler) { s.defaultAgent = agentID }
}

// NewSampler constructs a Sampler with a run-scoped, deterministic RNG seed,
// so that replaying the same runID reproduces the same Beta draws.
func NewSampler(beliefs *BeliefStore, runID string, opts ...SamplerOption) *Sampler {
	s := &Sampler{beliefs: beliefs, rng: rand.New(rand.NewSource(seedFromRunID(runID)))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select implements the argmax-sample Thompson selection algorithm from
// spec.md §4.4: draw θ per candidate, multiply by capability-match (1/0)
// and scarcity, argmax with the documented tie-break, then apply the
// confidence-threshold fallback.
func (s *Sampler) Select(candidates []AgentCandidate, task TaskFeatures, scarcity float64) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: empty candidate set", ErrNoEligibleAgent)
	}

	type scored struct {
		agentID string
		theta   float64
		obs     uint64
		caps    uint64
	}
	var scores []scored
	for _, c := range candidates {
		if !c.satisfies(task.RequiredCapabilities) {
			continue
		}
		belief := s.beliefs.Get(c.AgentID, task.Category)
		dist := distuv.Beta{Alpha: belief.Alpha, Beta: belief.Beta, Src: s.rng}
		theta := dist.Rand() * scarcity
		scores = append(scores, scored{agentID: c.AgentID, theta: theta, obs: belief.ObservationCount, caps: c.Capabilities})
	}
	if len(scores) == 0 {
		return "", fmt.Errorf("%w: no candidate satisfies required capabilities", ErrNoEligibleAgent)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].theta != scores[j].theta {
			return scores[i].theta > scores[j].theta
		}
		if scores[i].obs != scores[j].obs {
			return scores[i].obs < scores[j].obs
		}
		return scores[i].agentID < scores[j].agentID
	})

	best := scores[0]
	if best.theta == 0 {
		// All theta=0: pick lowest-observation agent (already first after
		// the tie-break sort above, since all thetas are equal).
		return best.agentID, nil
	}
	if s.confidenceThreshold > 0 && best.theta < s.confidenceThreshold && s.defaultAgent != "" {
		return s.defaultAgent, nil
	}
	return best.agentID, nil
}

// seedFromRunID derives a deterministic int64 seed from a run identifier,
// the same approach the retrieved example's initRNG(runID) uses for its own
// replay-stable RNG.
func seedFromRunID(runID string) int64 {
	var seed int64
	for i, b := range []byte(runID) {
		seed = seed*31 + int64(b) + int64(i)
	}
	if seed == 0 {
		seed = 1
	}
	return seed
}
