// Package otel provides OpenTelemetry metric exporter bindings for goBearer counters and
// histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each goBearer metric
// and Int64ObservableGauge per histogram bucket. A single callback reads
// [goBearer.Client.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate client state.
package otel
