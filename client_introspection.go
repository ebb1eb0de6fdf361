package goBearer

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goBearer/token"
)

// SessionInfo is the safe introspection view for the current session.
// It intentionally excludes the raw credential.
type SessionInfo struct {
	UserID       int64
	Email        string
	IsSuperadmin bool
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Remaining    time.Duration
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	BackendAvailable bool
	BackendLatency   time.Duration
}

// SessionInfo describes the sessioninfo operation and its observable behavior.
//
// SessionInfo may return an error when input validation, dependency calls, or security checks fail.
// SessionInfo does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SessionInfo() (*SessionInfo, error) {
	if c == nil || c.store == nil {
		return nil, ErrClientNotReady
	}

	sess, ok := c.store.Snapshot()
	if !ok {
		return nil, ErrNoSession
	}

	claims, err := token.Decode(sess.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return &SessionInfo{
		UserID:       sess.Identity.UserID,
		Email:        sess.Identity.Email,
		IsSuperadmin: sess.Identity.IsSuperadmin,
		IssuedAt:     claims.IssuedAt,
		ExpiresAt:    claims.ExpiresAt,
		Remaining:    claims.Remaining(c.clock()),
	}, nil
}

// Health describes the health operation and its observable behavior.
//
// Health may return an error when input validation, dependency calls, or security checks fail.
// Health does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if c == nil || c.backend == nil {
		return HealthStatus{}
	}

	p, ok := c.backend.(interface{ Ping(context.Context) error })
	if !ok {
		// In-process backends have no wire to fail.
		return HealthStatus{BackendAvailable: true}
	}

	start := time.Now()
	err := p.Ping(ctx)
	return HealthStatus{
		BackendAvailable: err == nil,
		BackendLatency:   time.Since(start),
	}
}
