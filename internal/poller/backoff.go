package poller

import (
	"math"
	"math/rand"
	"time"
)

// Default backoff parameters. A first retry after one second doubling up to
// a 32 second ceiling bounds worst-case request spacing while the jitter
// avoids synchronized retry storms across concurrently polling clients.
const (
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 32 * time.Second
	DefaultMultiplier   = 2.0

	// jitterRange is the half-open interval [0, jitterRange) added to every
	// uncapped delay.
	jitterRange = time.Second
)

// Backoff computes retry delays using capped exponential growth with jitter:
//
//	delay = min(Initial × Multiplier^attempt + jitter, Max)
//
// The attempt argument to [Backoff.Delay] is the 0-based count of the request
// that just completed, so the delay grows with each successive retry.
type Backoff struct {
	// Initial is the base delay before the first retry.
	Initial time.Duration

	// Max caps the computed delay, jitter included.
	Max time.Duration

	// Multiplier is the exponential growth factor.
	Multiplier float64

	// Jitter returns a random duration in [0, n). When nil, math/rand is
	// used. Injectable so tests can pin the jitter.
	Jitter func(n time.Duration) time.Duration
}

// DefaultBackoff returns a [Backoff] with the standard parameters: 1s initial
// delay, 2x growth, 32s cap.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    DefaultInitialDelay,
		Max:        DefaultMaxDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Delay returns the wait before the next attempt, given the 0-based count of
// the request that just completed. Negative attempts are treated as zero.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	base := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	if base >= float64(b.Max) {
		return b.Max
	}

	delay := time.Duration(base) + b.jitter()
	if delay > b.Max {
		delay = b.Max
	}
	return delay
}

func (b Backoff) jitter() time.Duration {
	if b.Jitter != nil {
		return b.Jitter(jitterRange)
	}
	return time.Duration(rand.Int63n(int64(jitterRange)))
}
