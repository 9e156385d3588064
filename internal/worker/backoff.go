package worker

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the wait between delivery attempts: exponential growth
// from Base, capped at Max, with proportional jitter so retries from
// simultaneous failures don't land in lockstep.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// NewBackoff returns a backoff policy with the standard doubling factor and
// 20% jitter.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = 2 * time.Second
	}
	if max <= 0 {
		max = 5 * time.Minute
	}
	return &Backoff{Base: base, Max: max, Factor: 2.0, Jitter: 0.2}
}

// Delay returns the wait before the given retry. Retries count from 1, so the
// first retry waits roughly Base, the second roughly Base*Factor, and so on.
func (b *Backoff) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}

	delay := float64(b.Base) * math.Pow(b.Factor, float64(retry-1))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.Jitter > 0 {
		span := delay * b.Jitter
		delay += (rand.Float64() * 2 * span) - span
	}

	if delay < float64(b.Base)/2 {
		delay = float64(b.Base) / 2
	}
	return time.Duration(delay)
}
