package goBearer

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/goBearer/token"
)

// authTransport is the [http.RoundTripper] installed in the client's HTTP
// stack. Every outbound request passes through the credential lifecycle
// here: pacing, auth-surface exemption, expiry short-circuit, proactive
// refresh, Bearer attachment, and the single refresh-and-retry cycle after
// a 401. The caller's request is never mutated; each attempt goes out on a
// clone.
//
//	Docs: docs/transport.md
type authTransport struct {
	c    *Client
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := t.c.throttleWait(ctx); err != nil {
		return nil, err
	}

	if skipAuthFromContext(ctx) || t.c.isAuthPath(req.URL.Path) {
		return t.send(req)
	}

	sess, ok := t.c.store.Snapshot()
	if !ok {
		// No session: the request goes out anonymous.
		return t.send(req)
	}

	credential := sess.Token
	now := t.c.clock()
	switch {
	case token.Expired(credential, now):
		// Local teardown, no network. The expired credential is never sent.
		t.c.expireSession(ctx, sess.Identity.UserID)
		return nil, ErrTokenExpired
	case token.NeedsRefresh(credential, now, t.c.cfg.Token.RefreshThreshold):
		fresh, err := t.c.awaitRefresh(ctx, credential)
		if err != nil {
			return nil, err
		}
		credential = fresh.Token
	}

	resp, err := t.send(t.withBearer(req, credential))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !t.c.cfg.HTTP.RetryOnUnauthorized {
		return resp, nil
	}
	return t.retryUnauthorized(req, resp, credential)
}

// retryUnauthorized runs the one refresh-and-retry cycle after a 401 on
// rejected. The original response is returned untouched when the request
// body cannot be replayed; a 401 on the retry is surfaced as-is.
func (t *authTransport) retryUnauthorized(req *http.Request, first *http.Response, rejected string) (*http.Response, error) {
	ctx := req.Context()

	if req.Body != nil && req.GetBody == nil {
		return first, nil
	}

	// The first response is abandoned; drain it so the connection is reused.
	_, _ = io.Copy(io.Discard, first.Body)
	_ = first.Body.Close()

	t.c.metricInc(MetricUnauthorizedRetry)
	t.c.emitAudit(ctx, auditEventUnauthorizedRetry, false, t.c.currentUserID(), req.URL.Path, http.StatusUnauthorized, ErrUnauthorized, nil)

	fresh, err := t.c.awaitRefresh(ctx, rejected)
	if err != nil {
		return nil, err
	}

	resp, err := t.send(t.withBearer(req, fresh.Token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		t.c.metricInc(MetricRetryRecovered)
	}
	return resp, nil
}

// withBearer clones req with the credential attached. A rewindable body is
// re-materialized from GetBody so the clone can be sent after the original
// body was consumed.
func (t *authTransport) withBearer(req *http.Request, credential string) *http.Request {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	clone.Header.Set("Authorization", "Bearer "+credential)
	return clone
}

func newRequestID() string {
	return uuid.NewString()
}

// send performs one network attempt. The request ID and context headers go
// on a clone; the outcome is logged and counted regardless of verdict.
func (t *authTransport) send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	id := requestIDFromContext(ctx)
	if id == "" {
		id = newRequestID()
	}

	attempt := req.Clone(ctx)
	attempt.Header.Set("X-Request-ID", id)
	for _, pair := range extraHeadersFromContext(ctx) {
		attempt.Header.Add(pair[0], pair[1])
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(attempt)
	elapsed := time.Since(start)

	t.c.metricInc(MetricRequests)
	t.c.metricObserve(MetricRequestLatency, elapsed)

	if err != nil {
		t.c.metricInc(MetricRequestFailures)
		t.c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.String("request_id", id),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	t.c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", id),
		zap.Duration("duration", elapsed),
	)

	// Surface the correlation ID to callers when the server did not echo it.
	if resp.Header.Get("X-Request-ID") == "" {
		resp.Header.Set("X-Request-ID", id)
	}
	return resp, nil
}
