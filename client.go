package goBearer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goBearer/internal/audit"
	"github.com/MrEthical07/goBearer/internal/flows"
	internalmetrics "github.com/MrEthical07/goBearer/internal/metrics"
	"github.com/MrEthical07/goBearer/internal/rate"
	"github.com/MrEthical07/goBearer/session"
)

// Client is the authenticated HTTP client. It owns the session pair, the
// shared refresh cycle, and the outbound transport. One Client serves a
// whole process and is safe for concurrent use.
//
// Construct it with [New] and the [Builder]; the zero value is not usable.
//
//	Docs: docs/usage.md
type Client struct {
	cfg  Config
	base *url.URL

	// httpClient carries the authTransport; authHTTP is the plain stack the
	// auth flows call through so credential handling cannot recurse.
	httpClient *http.Client
	authHTTP   *http.Client

	store    *session.Store
	backend  session.Backend
	coord    *refreshCoordinator
	flows    flows.Service
	audit    *internalaudit.Dispatcher
	metrics  *internalmetrics.Metrics
	logger   *zap.Logger
	logout   LogoutHandler
	signal   logoutSignal
	throttle *rate.Throttle
	clock    func() time.Time

	authPathPrefix string

	closed atomic.Bool
}

// Request describes the request operation and its observable behavior.
//
// Request may return an error when input validation, dependency calls, or security checks fail.
// Request does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// path is resolved against the configured BaseURL; body, when non-nil, is
// sent as JSON. Every HTTP status the server produced comes back in the
// [Response] untouched. Errors are reserved for transport and credential
// failures: [ErrTokenExpired], [ErrRefreshFailed], [ErrNetworkFailure].
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Response, error) {
	return c.do(ctx, method, path, body)
}

// Get issues an authenticated GET request for path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch issues an authenticated PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete issues an authenticated DELETE request for path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	if c == nil || c.httpClient == nil {
		return nil, ErrClientNotReady
	}
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.HTTP.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := c.readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      raw,
		RequestID: resp.Header.Get("X-Request-ID"),
	}, nil
}

// resolve joins path to the configured base URL. Absolute URLs are refused;
// the client only talks to its own API.
func (c *Client) resolve(path string) (*url.URL, error) {
	if path == "" {
		return nil, errors.New("request path must not be empty")
	}
	if strings.Contains(path, "://") {
		return nil, errors.New("request path must be relative to the configured BaseURL")
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path: %w", err)
	}

	u := *c.base
	u.Path = joinPath(c.base.Path, ref.Path)
	u.RawQuery = ref.RawQuery
	return &u, nil
}

func joinPath(base, p string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}

// mapTransportError unwraps the sentinels the transport reports through the
// HTTP client and folds everything else into [ErrNetworkFailure].
func (c *Client) mapTransportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		inner := uerr.Err
		switch {
		case errors.Is(inner, ErrTokenExpired),
			errors.Is(inner, ErrRefreshFailed),
			errors.Is(inner, context.Canceled),
			errors.Is(inner, context.DeadlineExceeded):
			return inner
		}
	}
	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.cfg.HTTP.MaxResponseBytes > 0 {
		r = io.LimitReader(r, c.cfg.HTTP.MaxResponseBytes)
	}
	return io.ReadAll(r)
}

func (c *Client) isAuthPath(p string) bool {
	return p == c.authPathPrefix || strings.HasPrefix(p, c.authPathPrefix+"/")
}

func (c *Client) throttleWait(ctx context.Context) error {
	if c.throttle.Allow() {
		return nil
	}
	c.metricInc(MetricThrottled)
	return c.throttle.Wait(ctx)
}

// CurrentIdentity describes the currentidentity operation and its observable behavior.
//
// CurrentIdentity may return an error when input validation, dependency calls, or security checks fail.
// CurrentIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentIdentity() (Identity, bool) {
	if c == nil || c.store == nil {
		return Identity{}, false
	}
	sess, ok := c.store.Snapshot()
	if !ok {
		return Identity{}, false
	}
	return sess.Identity, true
}

// HasSession describes the hassession operation and its observable behavior.
//
// HasSession may return an error when input validation, dependency calls, or security checks fail.
// HasSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) HasSession() bool {
	if c == nil || c.store == nil {
		return false
	}
	_, ok := c.store.Snapshot()
	return ok
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.closed.Swap(true) {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	if c.authHTTP != nil {
		c.authHTTP.CloseIdleConnections()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.MakeSnapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) metricObserve(id MetricID, d time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Observe(id, d)
}

func (c *Client) currentUserID() int64 {
	sess, ok := c.store.Snapshot()
	if !ok {
		return 0
	}
	return sess.Identity.UserID
}

// awaitRefresh parks on the shared refresh cycle and returns the rotated
// session. stale is the credential the caller found wanting, empty to force
// a wire call. Joining a cycle that was already in flight is counted.
func (c *Client) awaitRefresh(ctx context.Context, stale string) (session.Session, error) {
	sess, joined, err := c.coord.Await(ctx, stale)
	if joined {
		c.metricInc(MetricRefreshJoined)
		c.emitAudit(ctx, auditEventRefreshJoined, err == nil, sess.Identity.UserID, "", 0, err, nil)
	}
	return sess, err
}

// runRefresh is the leader body of a refresh cycle: one wire call, then
// either a wholesale session swap or a full local teardown. It runs on a
// context detached from any single waiter.
func (c *Client) runRefresh(ctx context.Context, stale string) refreshOutcome {
	sess, ok := c.store.Snapshot()
	if !ok {
		return refreshOutcome{err: ErrNoSession}
	}
	if stale != "" && sess.Token != stale {
		// Already rotated past the credential that triggered this cycle.
		return refreshOutcome{sess: sess}
	}

	start := time.Now()
	res := c.flows.Refresh(ctx, sess.Token)
	c.metricObserve(MetricRefreshLatency, time.Since(start))

	if res.Failure == flows.RefreshFailureNone {
		c.signal.Arm()
		c.metricInc(MetricRefreshSuccess)
		c.emitAudit(ctx, auditEventRefreshSuccess, true, res.Session.Identity.UserID, c.authPath("/refresh"), res.Status, nil, nil)
		return refreshOutcome{sess: res.Session}
	}

	err := fmt.Errorf("%w: %v", ErrRefreshFailed, refreshCause(res))

	// Teardown completes before any waiter observes the failure.
	if cerr := c.store.Clear(ctx); cerr != nil {
		c.logger.Warn("session clear failed", zap.Error(cerr))
	}
	c.metricInc(MetricRefreshFailure)
	c.emitAudit(ctx, auditEventRefreshFailure, false, sess.Identity.UserID, c.authPath("/refresh"), res.Status, err, func() map[string]string {
		return map[string]string{
			"reason": refreshFailureReason(res.Failure),
		}
	})
	c.forcedLogout(ctx, err, sess.Identity.UserID)
	return refreshOutcome{err: err}
}

func refreshCause(res flows.RefreshResult) error {
	if res.Err != nil {
		return res.Err
	}
	switch res.Failure {
	case flows.RefreshFailureRejected:
		return ErrUnauthorized
	case flows.RefreshFailureServer:
		return fmt.Errorf("%w: status %d", ErrServerUnavailable, res.Status)
	default:
		return errors.New("refresh rejected")
	}
}

func refreshFailureReason(kind flows.RefreshFailureKind) string {
	switch kind {
	case flows.RefreshFailureNetwork:
		return "network"
	case flows.RefreshFailureRejected:
		return "rejected"
	case flows.RefreshFailureServer:
		return "server_error"
	case flows.RefreshFailureDecode:
		return "decode_failed"
	case flows.RefreshFailureToken:
		return "token_unusable"
	case flows.RefreshFailurePersist:
		return "persist_failed"
	default:
		return "unknown"
	}
}

// expireSession tears down the local session after the credential was found
// expired. Clear happens first so no later reader can pick the dead pair
// up; teardown runs even when the caller's context is already canceled.
func (c *Client) expireSession(ctx context.Context, userID int64) {
	ctx = context.WithoutCancel(ctx)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("session clear failed", zap.Error(err))
	}
	c.metricInc(MetricTokenExpired)
	c.emitAudit(ctx, auditEventTokenExpired, false, userID, "", 0, ErrTokenExpired, nil)
	c.forcedLogout(ctx, ErrTokenExpired, userID)
}

// forcedLogout notifies the handler at most once per established session.
func (c *Client) forcedLogout(ctx context.Context, cause error, userID int64) {
	if !c.signal.Fire(ctx, c.logout, cause) {
		return
	}
	c.metricInc(MetricForcedLogout)
	c.emitAudit(ctx, auditEventForcedLogout, false, userID, "", 0, cause, nil)
}

// authCaller adapts the Client into the wire port the auth flows call
// through. It uses the plain HTTP stack: no credential handling, no retry.
type authCaller struct {
	c *Client
}

func (a authCaller) CallAuth(ctx context.Context, path, bearer string, body any) (flows.AuthReply, error) {
	c := a.c
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.throttleWait(ctx); err != nil {
		return flows.AuthReply{}, err
	}

	u := *c.base
	u.Path = joinPath(c.base.Path, c.cfg.API.AuthBase+path)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return flows.AuthReply{}, fmt.Errorf("encode auth request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), reader)
	if err != nil {
		return flows.AuthReply{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.HTTP.UserAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	id := requestIDFromContext(ctx)
	if id == "" {
		id = newRequestID()
	}
	req.Header.Set("X-Request-ID", id)

	start := time.Now()
	resp, err := c.authHTTP.Do(req)
	elapsed := time.Since(start)

	c.metricInc(MetricRequests)
	c.metricObserve(MetricRequestLatency, elapsed)

	if err != nil {
		c.metricInc(MetricRequestFailures)
		c.logger.Debug("auth request failed",
			zap.String("method", http.MethodPost),
			zap.String("url", u.String()),
			zap.String("request_id", id),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return flows.AuthReply{}, err
	}
	defer resp.Body.Close()

	raw, err := c.readBody(resp.Body)
	if err != nil {
		c.metricInc(MetricRequestFailures)
		return flows.AuthReply{}, err
	}

	c.logger.Debug("auth request completed",
		zap.String("method", http.MethodPost),
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", id),
		zap.Duration("duration", elapsed),
	)
	return flows.AuthReply{Status: resp.StatusCode, Body: raw}, nil
}
