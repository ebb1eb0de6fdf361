package internaldefs

import (
	goBearer "github.com/MrEthical07/goBearer"
)

// CounterDef defines a public type used by goBearer APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goBearer.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goBearer APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goBearer.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the client engine.
var CounterDefs = []CounterDef{
	{ID: goBearer.MetricLoginSuccess, Name: "gobearer_login_success_total", Help: "Successful login operations."},
	{ID: goBearer.MetricLoginFailure, Name: "gobearer_login_failure_total", Help: "Failed login operations."},
	{ID: goBearer.MetricLogout, Name: "gobearer_logout_total", Help: "Deliberate logout operations."},
	{ID: goBearer.MetricForcedLogout, Name: "gobearer_forced_logout_total", Help: "Forced logout notifications delivered."},
	{ID: goBearer.MetricRefreshSuccess, Name: "gobearer_refresh_success_total", Help: "Successful credential refresh cycles."},
	{ID: goBearer.MetricRefreshFailure, Name: "gobearer_refresh_failure_total", Help: "Failed credential refresh cycles."},
	{ID: goBearer.MetricRefreshJoined, Name: "gobearer_refresh_joined_total", Help: "Callers that joined an in-flight refresh cycle."},
	{ID: goBearer.MetricTokenExpired, Name: "gobearer_token_expired_total", Help: "Requests short-circuited by an expired credential."},
	{ID: goBearer.MetricUnauthorizedRetry, Name: "gobearer_unauthorized_retry_total", Help: "Requests retried after a 401 response."},
	{ID: goBearer.MetricRetryRecovered, Name: "gobearer_retry_recovered_total", Help: "Retries that recovered with a non-401 response."},
	{ID: goBearer.MetricRequests, Name: "gobearer_requests_total", Help: "Requests sent to the backing API."},
	{ID: goBearer.MetricRequestFailures, Name: "gobearer_request_failures_total", Help: "Requests that failed at the transport layer."},
	{ID: goBearer.MetricThrottled, Name: "gobearer_throttled_total", Help: "Requests delayed by the local throttle."},
}

// HistogramDefs is an exported constant or variable used by the client engine.
var HistogramDefs = []HistogramDef{
	{ID: goBearer.MetricRequestLatency, Name: "gobearer_request_latency_seconds", Help: "Request latency histogram."},
	{ID: goBearer.MetricRefreshLatency, Name: "gobearer_refresh_latency_seconds", Help: "Refresh cycle latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the client engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the client engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
