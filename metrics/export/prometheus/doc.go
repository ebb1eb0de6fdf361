// Package prometheus provides Prometheus collectors for goBearer metrics.
//
// [NewPrometheusExporter] accepts a [goBearer.Client] and exposes an [http.Handler]
// that renders all goBearer counters and histograms in Prometheus text exposition format.
// Counter names are prefixed gobearer_*_total; the histograms are
// gobearer_request_latency_seconds and gobearer_refresh_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate client state.
package prometheus
