package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goBearer/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNetwork
	RefreshFailureRejected
	RefreshFailureServer
	RefreshFailureDecode
	RefreshFailureToken
	RefreshFailurePersist
)

// RefreshResult carries either the rotated session or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Status  int
	Session session.Session
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Caller       AuthCaller
	InspectToken func(string) error
	Persist      func(context.Context, session.Session) error
}

// RunRefresh executes credential rotation against the refresh endpoint
// without root package dependencies. credential is the bearer presented to
// the server; by wire contract the request body is empty.
func RunRefresh(ctx context.Context, credential string, deps RefreshDeps) RefreshResult {
	reply, err := deps.Caller.CallAuth(ctx, "/refresh", credential, nil)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureNetwork, Err: err}
	}

	switch {
	case reply.Status == http.StatusOK:
	case reply.Status == http.StatusUnauthorized || reply.Status == http.StatusForbidden:
		return RefreshResult{Failure: RefreshFailureRejected, Status: reply.Status}
	default:
		return RefreshResult{Failure: RefreshFailureServer, Status: reply.Status}
	}

	sess, err := decodeGrant(reply.Body)
	if err != nil {
		if errors.Is(err, errEmptyGrantToken) {
			return RefreshResult{Failure: RefreshFailureToken, Err: err, Status: reply.Status}
		}
		return RefreshResult{Failure: RefreshFailureDecode, Err: err, Status: reply.Status}
	}
	if err := deps.InspectToken(sess.Token); err != nil {
		return RefreshResult{Failure: RefreshFailureToken, Err: err, Status: reply.Status}
	}

	if err := deps.Persist(ctx, sess); err != nil {
		return RefreshResult{Failure: RefreshFailurePersist, Err: err, Status: reply.Status}
	}

	return RefreshResult{Failure: RefreshFailureNone, Status: reply.Status, Session: sess}
}
