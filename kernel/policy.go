package kernel

import (
	"math/rand"
	"time"
)

// RetryPolicy configures automatic retry of a KindStep node's recoverable
// StepErrors with exponential backoff and jitter.
type RetryPolicy struct {
	// MaxAttempts is the number of execution attempts including the first
	// that Validate accepts (>= 1). The scheduler does not read it: attempts
	// are bounded by the node's RetryLimit (RetryLimit + 1 attempts).
	MaxAttempts int

	// BaseDelay is the backoff base. Actual delay is
	// min(BaseDelay*2^attempt, MaxDelay) + jitter(0, BaseDelay).
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// Retryable reports whether err should be retried. A recoverable
	// StepError with Retryable == nil is always retried up to the node's
	// RetryLimit.
	Retryable func(error) bool
}

// Validate reports whether rp is internally consistent.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// computeBackoff returns the delay before retry attempt number attempt
// (0-indexed), combining exponential backoff with jitter to avoid
// synchronized retry storms across concurrently-executing Fork branches.
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	delay := base * (1 << attempt)
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	var jitter time.Duration
	if base > 0 {
		if rng != nil {
			jitter = time.Duration(rng.Int63n(int64(base)))
		} else {
			jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry timing, not security
		}
	}
	return delay + jitter
}
