package flows

import "context"

// Service is the centralized flow runner built once by the root client.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Caller != nil
}

func (s Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, credential string) RefreshResult {
	return RunRefresh(ctx, credential, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, credential string) error {
	return RunLogout(ctx, credential, s.deps.Logout)
}

func (s Service) Verify(ctx context.Context, credential string) VerifyResult {
	return RunVerify(ctx, credential, s.deps.Verify)
}

func (s Service) SetPassword(ctx context.Context, credential, current, next string) SetPasswordResult {
	return RunSetPassword(ctx, credential, current, next, s.deps.SetPassword)
}
