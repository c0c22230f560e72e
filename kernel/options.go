package kernel

import (
	"time"

	"github.com/dshills/agentkernel/kernel/emit"
)

// Config collects every Scheduler configuration option named in spec.md §6,
// plus the ambient concerns (emission, metrics, retry backoff) a teacher
// engine always exposes alongside its domain options.
type Config struct {
	// Cache (C3)
	CacheBounded  bool
	CacheCapacity int
	CacheDefaultTTL time.Duration

	// Loop detection (C5)
	LoopDetection LoopDetectionConfig

	// Thompson Sampler (C4)
	ThompsonPriorAlpha         float64
	ThompsonPriorBeta          float64
	ThompsonConfidenceThreshold float64

	// Budget Guard (C6)
	BudgetLimits map[ResourceType]float64

	// Retrieval (external vector search contract, spec.md §6)
	RAGTopK        int
	RAGMinRelevance float64

	// Retry backoff applied when a node has no explicit RetryPolicy.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Ambient stack
	Emitter     emit.Emitter
	Metrics     *PrometheusMetrics
	CostTracker *CostTracker
}

// DefaultConfig returns the Scheduler's baseline configuration.
func DefaultConfig() Config {
	return Config{
		CacheBounded:                false,
		CacheCapacity:               DefaultCacheCapacity,
		CacheDefaultTTL:             0,
		LoopDetection:               DefaultLoopDetectionConfig(),
		ThompsonPriorAlpha:          DefaultPriorAlpha,
		ThompsonPriorBeta:           DefaultPriorBeta,
		ThompsonConfidenceThreshold: 0,
		BudgetLimits:                map[ResourceType]float64{},
		RAGTopK:                     5,
		RAGMinRelevance:             0.5,
		RetryBaseDelay:              0,
		RetryMaxDelay:               0,
		Emitter:                     emit.NewNullEmitter(),
	}
}

// Option configures a Config. Grounded on the retrieved example's functional
// options pattern (WithMaxConcurrent, WithQueueDepth, ...), narrowed to the
// options spec.md §6 actually names.
type Option func(*Config)

// WithBoundedCache switches the Step Execution Cache (C3) from an unbounded
// map to an LRU of capacity entries.
func WithBoundedCache(capacity int) Option {
	return func(cfg *Config) {
		cfg.CacheBounded = true
		cfg.CacheCapacity = capacity
	}
}

// WithCacheDefaultTTL sets the TTL steps use when they don't set their own
// Node.CacheTTL.
func WithCacheDefaultTTL(d time.Duration) Option {
	return func(cfg *Config) { cfg.CacheDefaultTTL = d }
}

// WithLoopDetection overrides the Progress Ledger's window size, exact-match
// threshold, semantic-similarity threshold, and decompose budget.
func WithLoopDetection(loopCfg LoopDetectionConfig) Option {
	return func(cfg *Config) { cfg.LoopDetection = loopCfg }
}

// WithThompsonPriors sets the Beta-prior hyperparameters new (agent,
// category) pairs start from.
func WithThompsonPriors(alpha, beta float64) Option {
	return func(cfg *Config) {
		cfg.ThompsonPriorAlpha = alpha
		cfg.ThompsonPriorBeta = beta
	}
}

// WithThompsonConfidenceThreshold sets the confidence threshold passed to
// the Engine's Sampler. The Engine configures no default agent on that
// Sampler, so a below-threshold draw still selects the highest-scoring
// candidate; the fallback applies only to a Sampler built with
// WithDefaultAgent.
func WithThompsonConfidenceThreshold(threshold float64) Option {
	return func(cfg *Config) { cfg.ThompsonConfidenceThreshold = threshold }
}

// WithBudgetLimits sets the Budget Guard's (C6) per-resource limits for the
// run. A ResourceType omitted from limits is treated as unlimited.
func WithBudgetLimits(limits map[ResourceType]float64) Option {
	return func(cfg *Config) { cfg.BudgetLimits = limits }
}

// WithRAGParams sets the default topK/minRelevance a Retriever call uses
// when a step doesn't override them.
func WithRAGParams(topK int, minRelevance float64) Option {
	return func(cfg *Config) {
		cfg.RAGTopK = topK
		cfg.RAGMinRelevance = minRelevance
	}
}

// WithRetryBackoff sets the default exponential backoff parameters applied
// to a retried step when its Node has no explicit RetryPolicy.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(cfg *Config) {
		cfg.RetryBaseDelay = base
		cfg.RetryMaxDelay = max
	}
}

// WithEmitter installs the observability sink (ambient stack).
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *Config) { cfg.Emitter = e }
}

// WithMetrics installs a Prometheus metrics sink (ambient stack).
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *Config) { cfg.Metrics = m }
}

// WithCostTracker installs LLM dollar-cost tracking (ambient stack).
func WithCostTracker(t *CostTracker) Option {
	return func(cfg *Config) { cfg.CostTracker = t }
}
