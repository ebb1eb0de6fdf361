package rate

import (
	"context"

	xrate "golang.org/x/time/rate"
)

// Throttle paces outgoing HTTP requests with a token bucket.
//
// A nil *Throttle is valid and means "unlimited": every method becomes a
// no-op. Callers never need to branch on whether throttling is enabled.
type Throttle struct {
	limiter *xrate.Limiter
}

// NewThrottle creates a [Throttle] with the given sustained rate and burst.
//
// perSecond is the steady request rate, burst the bucket depth. A
// non-positive perSecond disables throttling and returns nil. A
// non-positive burst is clamped to 1 so an enabled throttle can always
// make progress.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: xrate.NewLimiter(xrate.Limit(perSecond), burst)}
}

// Wait blocks until a request slot is available or ctx is done. It returns
// the context error on cancellation and nil otherwise.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a request slot is available right now without
// blocking. It consumes the slot when it returns true.
func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	return t.limiter.Allow()
}
