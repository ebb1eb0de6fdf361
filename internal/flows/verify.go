package flows

import (
	"context"
	"net/http"
)

// VerifyFailureKind classifies verify flow failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureNetwork
	VerifyFailureRejected
	VerifyFailureServer
)

// VerifyResult carries the server's verdict on the presented credential.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	Status  int
}

// VerifyDeps captures verify flow dependencies.
type VerifyDeps struct {
	Caller AuthCaller
}

// RunVerify asks the server whether the presented credential is still
// accepted. It never mutates local state.
func RunVerify(ctx context.Context, credential string, deps VerifyDeps) VerifyResult {
	reply, err := deps.Caller.CallAuth(ctx, "/verify", credential, nil)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureNetwork, Err: err}
	}

	switch {
	case reply.Status == http.StatusOK || reply.Status == http.StatusNoContent:
		return VerifyResult{Failure: VerifyFailureNone, Status: reply.Status}
	case reply.Status == http.StatusUnauthorized || reply.Status == http.StatusForbidden:
		return VerifyResult{Failure: VerifyFailureRejected, Status: reply.Status}
	default:
		return VerifyResult{Failure: VerifyFailureServer, Status: reply.Status}
	}
}
