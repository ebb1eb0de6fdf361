package goBearer

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goBearer/session"
)

// refreshOutcome is the shared result every waiter of a refresh cycle
// receives.
type refreshOutcome struct {
	sess session.Session
	err  error
}

// refreshCoordinator collapses concurrent refresh demand into one network
// call. The first caller becomes the leader of a cycle; everyone arriving
// while it is active joins as a waiter. When the cycle finishes, its
// outcome is broadcast to all waiters in arrival order and the coordinator
// returns to idle.
//
//	Docs: docs/refresh.md
type refreshCoordinator struct {
	mu      sync.Mutex
	active  bool
	waiters []chan refreshOutcome

	run     func(ctx context.Context, stale string) refreshOutcome
	timeout time.Duration
}

func newRefreshCoordinator(timeout time.Duration, run func(ctx context.Context, stale string) refreshOutcome) *refreshCoordinator {
	return &refreshCoordinator{
		run:     run,
		timeout: timeout,
	}
}

// Await joins the in-flight refresh cycle, starting one if none is active.
// stale is the credential the caller found wanting; a cycle it starts may
// skip the wire call when the pair was already rotated past it. Empty stale
// forces the call. joined reports whether an existing cycle was in flight.
// Cancelling ctx abandons this waiter only; the cycle keeps running so the
// remaining waiters still receive its outcome.
func (rc *refreshCoordinator) Await(ctx context.Context, stale string) (sess session.Session, joined bool, err error) {
	out := make(chan refreshOutcome, 1)

	rc.mu.Lock()
	rc.waiters = append(rc.waiters, out)
	joined = rc.active
	if !rc.active {
		rc.active = true
		go rc.lead(stale)
	}
	rc.mu.Unlock()

	select {
	case o := <-out:
		return o.sess, joined, o.err
	case <-ctx.Done():
		return session.Session{}, joined, ctx.Err()
	}
}

// lead runs the refresh on a detached context so one waiter's cancellation
// cannot fail the shared cycle. The store mutation inside run completes
// before any waiter observes the outcome.
func (rc *refreshCoordinator) lead(stale string) {
	ctx := context.Background()
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}
	o := rc.run(ctx, stale)

	rc.mu.Lock()
	waiters := rc.waiters
	rc.waiters = nil
	rc.active = false
	rc.mu.Unlock()

	for _, w := range waiters {
		w <- o
	}
}
