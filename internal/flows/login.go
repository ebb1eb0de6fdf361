package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goBearer/session"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureNetwork
	LoginFailureRejected
	LoginFailureServer
	LoginFailureDecode
	LoginFailureToken
	LoginFailurePersist
)

// LoginResult carries either the established session or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Status  int
	Session session.Session
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Caller       AuthCaller
	InspectToken func(string) error
	Persist      func(context.Context, session.Session) error
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RunLogin executes credential exchange and session establishment without
// root package dependencies.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	reply, err := deps.Caller.CallAuth(ctx, "/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{Failure: LoginFailureNetwork, Err: err}
	}

	switch {
	case reply.Status == http.StatusOK:
	case reply.Status == http.StatusUnauthorized || reply.Status == http.StatusForbidden:
		return LoginResult{Failure: LoginFailureRejected, Status: reply.Status}
	default:
		return LoginResult{Failure: LoginFailureServer, Status: reply.Status}
	}

	sess, err := decodeGrant(reply.Body)
	if err != nil {
		if errors.Is(err, errEmptyGrantToken) {
			return LoginResult{Failure: LoginFailureToken, Err: err, Status: reply.Status}
		}
		return LoginResult{Failure: LoginFailureDecode, Err: err, Status: reply.Status}
	}
	if err := deps.InspectToken(sess.Token); err != nil {
		return LoginResult{Failure: LoginFailureToken, Err: err, Status: reply.Status}
	}

	if err := deps.Persist(ctx, sess); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, Status: reply.Status}
	}

	return LoginResult{Failure: LoginFailureNone, Status: reply.Status, Session: sess}
}
