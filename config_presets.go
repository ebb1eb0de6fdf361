package goBearer

import "time"

// DefaultConfig returns the baseline configuration pointed at baseURL.
// Audit, metrics, and throttling are off; proactive refresh uses the
// standard 30 minute window. The result passes [Config.Validate].
//
//	Docs: docs/usage.md
func DefaultConfig(baseURL string) Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	return cfg
}

// HighSecurityConfig returns a configuration tuned for environments where
// losing auth telemetry is worse than added latency: eager proactive
// refresh, lossless audit dispatch, metrics on, and a conservative
// throttle. The result passes [Config.Validate].
//
//	Docs: docs/usage.md
func HighSecurityConfig(baseURL string) Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Token.RefreshThreshold = 45 * time.Minute
	cfg.HTTP.Timeout = 15 * time.Second
	cfg.Throttle = ThrottleConfig{
		Enabled:           true,
		RequestsPerSecond: 50,
		Burst:             100,
	}
	cfg.Audit = AuditConfig{
		Enabled:    true,
		BufferSize: 4096,
		DropIfFull: false,
	}
	cfg.Metrics = MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	}
	return cfg
}

// HighThroughputConfig returns a configuration tuned for request-heavy
// workloads: a lazier refresh window, short timeouts, drop-if-full audit,
// and counters without latency histograms. The result passes
// [Config.Validate].
//
//	Docs: docs/usage.md
func HighThroughputConfig(baseURL string) Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Token.RefreshThreshold = 10 * time.Minute
	cfg.HTTP.Timeout = 10 * time.Second
	cfg.Throttle = ThrottleConfig{
		Enabled:           true,
		RequestsPerSecond: 200,
		Burst:             400,
	}
	cfg.Audit = AuditConfig{
		Enabled:    true,
		BufferSize: 8192,
		DropIfFull: true,
	}
	cfg.Metrics = MetricsConfig{
		Enabled: true,
	}
	return cfg
}
