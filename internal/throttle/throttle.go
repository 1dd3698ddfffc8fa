// Package throttle caps the throughput of a single download worker. The cap
// is per worker, not global: aggregate throughput is cap times active workers.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle limits chunk writes to a configured rate in bytes/sec. A nil
// Throttle is a valid no-op, so callers never branch on whether a cap is set.
type Throttle struct {
	limiter *rate.Limiter
}

// New returns a throttle for the given rate, with burst bounded to one chunk
// so a sustained transfer never overshoots the cap by more than chunkSize.
// A rate of zero or less returns nil.
func New(bytesPerSec float64, chunkSize int64) *Throttle {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(chunkSize)
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}
}

// Wait blocks until n bytes are allowed through. Chunks larger than the
// burst are consumed in burst-sized slices.
func (t *Throttle) Wait(ctx context.Context, n int) error {
	if t == nil || n <= 0 {
		return nil
	}
	burst := t.limiter.Burst()
	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}
		if err := t.limiter.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}
