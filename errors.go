package goBearer

import "errors"

var (
	// ErrTokenInvalid is an exported constant or variable used by the client engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the client engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrRefreshFailed is an exported constant or variable used by the client engine.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrUnauthorized is an exported constant or variable used by the client engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetworkFailure is an exported constant or variable used by the client engine.
	ErrNetworkFailure = errors.New("network failure")
	// ErrInvalidCredentials is an exported constant or variable used by the client engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession is an exported constant or variable used by the client engine.
	ErrNoSession = errors.New("no active session")
	// ErrPasswordRejected is an exported constant or variable used by the client engine.
	ErrPasswordRejected = errors.New("password change rejected")
	// ErrServerUnavailable is an exported constant or variable used by the client engine.
	ErrServerUnavailable = errors.New("auth server unavailable")
	// ErrClientNotReady is an exported constant or variable used by the client engine.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrClientClosed is an exported constant or variable used by the client engine.
	ErrClientClosed = errors.New("client closed")
)
