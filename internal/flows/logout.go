package flows

import (
	"context"
	"fmt"
	"net/http"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Caller AuthCaller
}

// RunLogout announces the logout to the server so it can revoke the
// credential. Local session teardown is the caller's job and must happen
// regardless of what this returns.
func RunLogout(ctx context.Context, credential string, deps LogoutDeps) error {
	reply, err := deps.Caller.CallAuth(ctx, "/logout", credential, nil)
	if err != nil {
		return err
	}
	if reply.Status != http.StatusOK && reply.Status != http.StatusNoContent {
		return fmt.Errorf("logout rejected with status %d", reply.Status)
	}
	return nil
}
