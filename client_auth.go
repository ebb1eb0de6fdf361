package goBearer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/goBearer/internal/flows"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// On success the granted session pair replaces whatever the store held
// before, wholesale, and the returned [Identity] describes the new user.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	if c == nil || !c.flows.Initialized() {
		return Identity{}, ErrClientNotReady
	}
	if c.closed.Load() {
		return Identity{}, ErrClientClosed
	}
	if email == "" || password == "" {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, 0, c.authPath("/login"), 0, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_credentials",
			}
		})
		return Identity{}, ErrInvalidCredentials
	}

	res := c.flows.Login(ctx, email, password)
	if res.Failure != flows.LoginFailureNone {
		err := loginError(res)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, 0, c.authPath("/login"), res.Status, err, func() map[string]string {
			return map[string]string{
				"reason": loginFailureReason(res.Failure),
			}
		})
		return Identity{}, err
	}

	c.signal.Arm()
	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, res.Session.Identity.UserID, c.authPath("/login"), res.Status, nil, nil)
	return res.Session.Identity, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The server call is best-effort: the local session pair is cleared and the
// forced-logout signal disarmed no matter what the server answers.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || !c.flows.Initialized() {
		return ErrClientNotReady
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	sess, ok := c.store.Snapshot()
	if !ok {
		return ErrNoSession
	}

	serverErr := c.flows.Logout(ctx, sess.Token)

	// Deliberate logout: disarm before clearing so a racing expiry cannot
	// notify the handler about a session the user just ended.
	c.signal.Disarm()
	clearErr := c.store.Clear(context.WithoutCancel(ctx))
	if clearErr != nil {
		c.logger.Warn("session clear failed", zap.Error(clearErr))
	}

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, serverErr == nil && clearErr == nil, sess.Identity.UserID, c.authPath("/logout"), 0, serverErr, nil)

	if clearErr != nil {
		return clearErr
	}
	return serverErr
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Refresh joins the shared refresh cycle; concurrent callers produce one
// wire call and share its outcome. On failure the session is already torn
// down when the error returns.
func (c *Client) Refresh(ctx context.Context) (Identity, error) {
	if c == nil || !c.flows.Initialized() {
		return Identity{}, ErrClientNotReady
	}
	if c.closed.Load() {
		return Identity{}, ErrClientClosed
	}
	if !c.HasSession() {
		return Identity{}, ErrNoSession
	}

	// An explicit refresh always spends the wire call.
	sess, err := c.awaitRefresh(ctx, "")
	if err != nil {
		return Identity{}, err
	}
	return sess.Identity, nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Verify asks the server whether the current credential is still accepted.
// It is read-only: a rejected credential is reported as [ErrUnauthorized]
// without touching the local session.
func (c *Client) Verify(ctx context.Context) error {
	if c == nil || !c.flows.Initialized() {
		return ErrClientNotReady
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	sess, ok := c.store.Snapshot()
	if !ok {
		return ErrNoSession
	}

	res := c.flows.Verify(ctx, sess.Token)
	if res.Failure == flows.VerifyFailureNone {
		c.emitAudit(ctx, auditEventVerifySuccess, true, sess.Identity.UserID, c.authPath("/verify"), res.Status, nil, nil)
		return nil
	}

	var err error
	switch res.Failure {
	case flows.VerifyFailureRejected:
		err = ErrUnauthorized
	case flows.VerifyFailureNetwork:
		err = fmt.Errorf("%w: %v", ErrNetworkFailure, res.Err)
	default:
		err = fmt.Errorf("%w: status %d", ErrServerUnavailable, res.Status)
	}
	c.emitAudit(ctx, auditEventVerifyFailure, false, sess.Identity.UserID, c.authPath("/verify"), res.Status, err, nil)
	return err
}

// SetPassword describes the setpassword operation and its observable behavior.
//
// SetPassword may return an error when input validation, dependency calls, or security checks fail.
// SetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A server-side rejection of the change itself (wrong current password,
// policy violation) is [ErrPasswordRejected]; a rejected credential is
// [ErrUnauthorized]. The session stays untouched either way.
func (c *Client) SetPassword(ctx context.Context, currentPassword, newPassword string) error {
	if c == nil || !c.flows.Initialized() {
		return ErrClientNotReady
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	sess, ok := c.store.Snapshot()
	if !ok {
		return ErrNoSession
	}

	res := c.flows.SetPassword(ctx, sess.Token, currentPassword, newPassword)
	if res.Failure == flows.SetPasswordFailureNone {
		c.emitAudit(ctx, auditEventSetPasswordSuccess, true, sess.Identity.UserID, c.authPath("/set-password"), res.Status, nil, nil)
		return nil
	}

	var err error
	switch res.Failure {
	case flows.SetPasswordFailureInvalid:
		err = fmt.Errorf("%w: status %d", ErrPasswordRejected, res.Status)
	case flows.SetPasswordFailureRejected:
		err = ErrUnauthorized
	case flows.SetPasswordFailureNetwork:
		err = fmt.Errorf("%w: %v", ErrNetworkFailure, res.Err)
	default:
		err = fmt.Errorf("%w: status %d", ErrServerUnavailable, res.Status)
	}
	c.emitAudit(ctx, auditEventSetPasswordFailure, false, sess.Identity.UserID, c.authPath("/set-password"), res.Status, err, nil)
	return err
}

func (c *Client) authPath(endpoint string) string {
	return c.cfg.API.AuthBase + endpoint
}

func loginError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureNetwork:
		return fmt.Errorf("%w: %v", ErrNetworkFailure, res.Err)
	case flows.LoginFailureRejected:
		return ErrInvalidCredentials
	case flows.LoginFailureServer:
		return fmt.Errorf("%w: status %d", ErrServerUnavailable, res.Status)
	case flows.LoginFailureDecode, flows.LoginFailureToken:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, res.Err)
	case flows.LoginFailurePersist:
		return res.Err
	default:
		return fmt.Errorf("login failed with status %d", res.Status)
	}
}

func loginFailureReason(kind flows.LoginFailureKind) string {
	switch kind {
	case flows.LoginFailureNetwork:
		return "network"
	case flows.LoginFailureRejected:
		return "rejected"
	case flows.LoginFailureServer:
		return "server_error"
	case flows.LoginFailureDecode:
		return "decode_failed"
	case flows.LoginFailureToken:
		return "token_unusable"
	case flows.LoginFailurePersist:
		return "persist_failed"
	default:
		return "unknown"
	}
}
