package goBearer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	internalaudit "github.com/MrEthical07/goBearer/internal/audit"
	internalmetrics "github.com/MrEthical07/goBearer/internal/metrics"
	"github.com/MrEthical07/goBearer/session"
)

// Identity is the decoded server-issued identity stored next to the bearer
// credential. The two always change together.
//
//	Docs: docs/session.md
type Identity = session.Identity

// Session pairs the raw bearer credential with its [Identity].
//
//	Docs: docs/session.md
type Session = session.Session

// Response is returned by [Client.Request] and the verb helpers. Any HTTP
// status the server produced is surfaced here untouched — only transport
// and credential failures become errors.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// LogoutHandler receives forced-logout notifications. The client invokes it
// at most once per established session, after the local session pair has
// already been cleared. cause carries the sentinel that triggered the
// teardown ([ErrTokenExpired] or [ErrRefreshFailed]).
//
//	Docs: docs/refresh.md
type LogoutHandler interface {
	ForcedLogout(ctx context.Context, cause error)
}

// NoOpLogoutHandler is a [LogoutHandler] that ignores all notifications.
type NoOpLogoutHandler struct{}

func (NoOpLogoutHandler) ForcedLogout(context.Context, error) {}

// LogoutFunc adapts a plain function into a [LogoutHandler].
type LogoutFunc func(ctx context.Context, cause error)

func (f LogoutFunc) ForcedLogout(ctx context.Context, cause error) {
	if f != nil {
		f(ctx, cause)
	}
}

// ChannelLogoutHandler is a buffered channel-based [LogoutHandler] so tests
// and UIs can observe forced logouts without callbacks.
type ChannelLogoutHandler struct {
	causes chan error
}

// NewChannelLogoutHandler creates a [ChannelLogoutHandler] with the given
// buffer capacity.
func NewChannelLogoutHandler(buffer int) *ChannelLogoutHandler {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelLogoutHandler{
		causes: make(chan error, buffer),
	}
}

func (h *ChannelLogoutHandler) ForcedLogout(ctx context.Context, cause error) {
	select {
	case h.causes <- cause:
	case <-ctx.Done():
	}
}

// Causes exposes the forced-logout notifications in arrival order.
func (h *ChannelLogoutHandler) Causes() <-chan error {
	return h.causes
}

// AuditEvent is a structured audit record emitted by the client.
//
//	Docs: docs/audit.md
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
//
//	Docs: docs/audit.md
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
//
//	Docs: docs/audit.md
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
//
//	Docs: docs/audit.md
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
//
//	Docs: docs/audit.md
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
//
//	Docs: docs/audit.md
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess is an exported constant or variable used by the client engine.
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginFailure is an exported constant or variable used by the client engine.
	MetricLoginFailure = MetricID(internalmetrics.MetricLoginFailure)
	// MetricLogout is an exported constant or variable used by the client engine.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricForcedLogout is an exported constant or variable used by the client engine.
	MetricForcedLogout = MetricID(internalmetrics.MetricForcedLogout)
	// MetricRefreshSuccess is an exported constant or variable used by the client engine.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure is an exported constant or variable used by the client engine.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshJoined is an exported constant or variable used by the client engine.
	MetricRefreshJoined = MetricID(internalmetrics.MetricRefreshJoined)
	// MetricTokenExpired is an exported constant or variable used by the client engine.
	MetricTokenExpired = MetricID(internalmetrics.MetricTokenExpired)
	// MetricUnauthorizedRetry is an exported constant or variable used by the client engine.
	MetricUnauthorizedRetry = MetricID(internalmetrics.MetricUnauthorizedRetry)
	// MetricRetryRecovered is an exported constant or variable used by the client engine.
	MetricRetryRecovered = MetricID(internalmetrics.MetricRetryRecovered)
	// MetricRequests is an exported constant or variable used by the client engine.
	MetricRequests = MetricID(internalmetrics.MetricRequests)
	// MetricRequestFailures is an exported constant or variable used by the client engine.
	MetricRequestFailures = MetricID(internalmetrics.MetricRequestFailures)
	// MetricThrottled is an exported constant or variable used by the client engine.
	MetricThrottled = MetricID(internalmetrics.MetricThrottled)
	// MetricRequestLatency is an exported constant or variable used by the client engine.
	MetricRequestLatency = MetricID(internalmetrics.MetricRequestLatency)
	// MetricRefreshLatency is an exported constant or variable used by the client engine.
	MetricRefreshLatency = MetricID(internalmetrics.MetricRefreshLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
//
//	Docs: docs/metrics.md
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
//
//	Docs: docs/metrics.md
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
//
//	Docs: docs/metrics.md
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
