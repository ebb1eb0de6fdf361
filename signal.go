package goBearer

import (
	"context"
	"sync/atomic"
)

// logoutSignal gates forced-logout notification to at most one delivery per
// established session. It is armed when a session is persisted and disarmed
// by a deliberate logout, so racing failures cannot notify twice.
type logoutSignal struct {
	armed atomic.Bool
}

func (s *logoutSignal) Arm() { s.armed.Store(true) }

func (s *logoutSignal) Disarm() { s.armed.Store(false) }

// Fire delivers cause to handler if the signal is currently armed, and
// reports whether this call was the one that delivered.
func (s *logoutSignal) Fire(ctx context.Context, handler LogoutHandler, cause error) bool {
	if !s.armed.CompareAndSwap(true, false) {
		return false
	}
	if handler != nil {
		handler.ForcedLogout(ctx, cause)
	}
	return true
}
