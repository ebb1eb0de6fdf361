package goBearer

import (
	"context"
	"errors"

	"github.com/MrEthical07/goBearer/session"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLogout             = "logout"
	auditEventForcedLogout       = "forced_logout"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshFailure     = "refresh_failure"
	auditEventRefreshJoined      = "refresh_joined"
	auditEventTokenExpired       = "token_expired"
	auditEventUnauthorizedRetry  = "unauthorized_retry"
	auditEventVerifySuccess      = "verify_success"
	auditEventVerifyFailure      = "verify_failure"
	auditEventSetPasswordSuccess = "set_password_success"
	auditEventSetPasswordFailure = "set_password_failure"
)

// AuditErrorCode defines a public type used by goBearer APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrTokenInvalid       AuditErrorCode = "token_invalid"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrRefreshFailed      AuditErrorCode = "refresh_failed"
	auditErrNetworkFailure     AuditErrorCode = "network_failure"
	auditErrNoSession          AuditErrorCode = "no_session"
	auditErrPasswordRejected   AuditErrorCode = "password_rejected"
	auditErrServerUnavailable  AuditErrorCode = "server_unavailable"
	auditErrBackendUnavailable AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	path string,
	status int,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: c.clock().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Path:      path,
		Status:    status,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrRefreshFailed):
		return auditErrRefreshFailed
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrNetworkFailure):
		return auditErrNetworkFailure
	case errors.Is(err, ErrNoSession):
		return auditErrNoSession
	case errors.Is(err, ErrPasswordRejected):
		return auditErrPasswordRejected
	case errors.Is(err, ErrServerUnavailable):
		return auditErrServerUnavailable
	case errors.Is(err, session.ErrBackendUnavailable):
		return auditErrBackendUnavailable
	default:
		return auditErrInternal
	}
}
