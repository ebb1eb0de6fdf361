package goBearer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goBearer/internal/audit"
	"github.com/MrEthical07/goBearer/internal/flows"
	"github.com/MrEthical07/goBearer/internal/rate"
	"github.com/MrEthical07/goBearer/session"
	"github.com/MrEthical07/goBearer/token"
)

// Builder defines a public type used by goBearer APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	httpClient *http.Client
	redis      *redis.Client
	backend    session.Backend

	logger        *zap.Logger
	auditSink     AuditSink
	logoutHandler LogoutHandler
	clock         func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
//
// WithBaseURL may return an error when input validation, dependency calls, or security checks fail.
// WithBaseURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Only the client's Transport is adopted; timeouts come from [HTTPConfig].
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithBackend describes the withbackend operation and its observable behavior.
//
// WithBackend may return an error when input validation, dependency calls, or security checks fail.
// WithBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// An explicit backend wins over [Builder.WithRedis].
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogoutHandler describes the withlogouthandler operation and its observable behavior.
//
// WithLogoutHandler may return an error when input validation, dependency calls, or security checks fail.
// WithLogoutHandler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogoutHandler(handler LogoutHandler) *Builder {
	b.logoutHandler = handler
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock may return an error when input validation, dependency calls, or security checks fail.
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The clock drives every expiry decision; tests inject a fixed one.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	backend := b.backend
	if backend == nil && b.redis != nil {
		rb, err := session.NewRedisBackend(b.redis, cfg.Store.RedisPrefix, cfg.Store.CredentialSlot, cfg.Store.IdentitySlot)
		if err != nil {
			return nil, err
		}
		backend = rb
	}
	if backend == nil {
		backend = session.NewMemoryBackend()
	}

	store, err := session.Open(context.Background(), backend)
	if err != nil {
		return nil, err
	}

	// -------- CLIENT CORE --------
	client := &Client{
		cfg:            cfg,
		base:           base,
		store:          store,
		backend:        backend,
		metrics:        NewMetrics(cfg.Metrics),
		logger:         b.logger,
		logout:         b.logoutHandler,
		clock:          b.clock,
		authPathPrefix: joinPath(base.Path, cfg.API.AuthBase),
	}
	if client.logger == nil {
		client.logger = zap.NewNop()
	}
	if client.logout == nil {
		client.logout = NoOpLogoutHandler{}
	}
	if client.clock == nil {
		client.clock = time.Now
	}

	// -------- TRANSPORT --------
	baseTransport := http.DefaultTransport
	if b.httpClient != nil && b.httpClient.Transport != nil {
		baseTransport = b.httpClient.Transport
	}
	client.httpClient = &http.Client{
		Transport: &authTransport{c: client, base: baseTransport},
		Timeout:   cfg.HTTP.Timeout,
	}
	client.authHTTP = &http.Client{
		Transport: baseTransport,
		Timeout:   cfg.HTTP.Timeout,
	}

	// -------- AUTH FLOWS --------
	caller := authCaller{c: client}
	inspect := func(raw string) error {
		claims, err := token.Decode(raw)
		if err != nil {
			return err
		}
		if claims.Expired(client.clock()) {
			return ErrTokenExpired
		}
		return nil
	}
	client.flows = flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Caller:       caller,
			InspectToken: inspect,
			Persist:      store.Replace,
		},
		Refresh: flows.RefreshDeps{
			Caller:       caller,
			InspectToken: inspect,
			Persist:      store.Replace,
		},
		Logout: flows.LogoutDeps{
			Caller: caller,
		},
		Verify: flows.VerifyDeps{
			Caller: caller,
		},
		SetPassword: flows.SetPasswordDeps{
			Caller: caller,
		},
	})

	// -------- REFRESH COORDINATION --------
	client.coord = newRefreshCoordinator(cfg.HTTP.Timeout, client.runRefresh)

	// -------- TELEMETRY --------
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = internalaudit.NoOpSink{}
		}
		client.audit = internalaudit.NewDispatcher(cfg.Audit.BufferSize, cfg.Audit.DropIfFull, sink)
	}
	if cfg.Throttle.Enabled {
		client.throttle = rate.NewThrottle(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst)
	}

	// A rehydrated session can be torn down later; arm its notification.
	if _, ok := store.Snapshot(); ok {
		client.signal.Arm()
	}

	b.built = true

	return client, nil
}
