package flows

import (
	"context"
	"net/http"
)

// SetPasswordFailureKind classifies set-password flow failures for
// root-level mapping.
type SetPasswordFailureKind int

const (
	SetPasswordFailureNone SetPasswordFailureKind = iota
	SetPasswordFailureNetwork
	SetPasswordFailureRejected
	SetPasswordFailureInvalid
	SetPasswordFailureServer
)

// SetPasswordResult carries the server's verdict on the password change.
type SetPasswordResult struct {
	Failure SetPasswordFailureKind
	Err     error
	Status  int
}

// SetPasswordDeps captures set-password flow dependencies.
type SetPasswordDeps struct {
	Caller AuthCaller
}

type setPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// RunSetPassword submits a password change for the authenticated user. A
// 400 or 422 answer means the server rejected the change itself (wrong
// current password, policy violation) while the credential stayed valid.
func RunSetPassword(ctx context.Context, credential, current, next string, deps SetPasswordDeps) SetPasswordResult {
	reply, err := deps.Caller.CallAuth(ctx, "/set-password", credential, setPasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return SetPasswordResult{Failure: SetPasswordFailureNetwork, Err: err}
	}

	switch {
	case reply.Status == http.StatusOK || reply.Status == http.StatusNoContent:
		return SetPasswordResult{Failure: SetPasswordFailureNone, Status: reply.Status}
	case reply.Status == http.StatusUnauthorized || reply.Status == http.StatusForbidden:
		return SetPasswordResult{Failure: SetPasswordFailureRejected, Status: reply.Status}
	case reply.Status == http.StatusBadRequest || reply.Status == http.StatusUnprocessableEntity:
		return SetPasswordResult{Failure: SetPasswordFailureInvalid, Status: reply.Status}
	default:
		return SetPasswordResult{Failure: SetPasswordFailureServer, Status: reply.Status}
	}
}
