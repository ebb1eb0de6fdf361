package goBearer

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks how urgent a lint finding is.
type LintSeverity int

const (
	// LintLow marks advisory findings that are safe to ship.
	LintLow LintSeverity = iota
	// LintMedium marks findings that weaken the client in production.
	LintMedium
	// LintHigh marks findings that are almost certainly mistakes.
	LintHigh
)

// String returns the human-readable severity name.
func (s LintSeverity) String() string {
	switch s {
	case LintLow:
		return "LOW"
	case LintMedium:
		return "MEDIUM"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a single advisory finding produced by [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the ordered result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError collapses the warnings at or above min into a single error, or
// nil when none reach that severity.
func (ws LintWarnings) AsError(min LintSeverity) error {
	hits := ws.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", w.Code, w.Severity, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint inspects the configuration for settings that are valid but likely
// unwanted in production. It never fails; pair it with
// [LintWarnings.AsError] to enforce a severity floor at startup.
//
//	Docs: docs/usage.md
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	warn := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopbackHost(u.Host) {
		warn("insecure_base_url", LintHigh,
			"BaseURL uses plain http to a non-loopback host; bearer credentials travel unencrypted")
	}
	if c.Token.RefreshThreshold == 0 {
		warn("refresh_threshold_zero", LintMedium,
			"proactive refresh is disabled; sessions end with a forced logout on every expiry")
	}
	if c.Token.RefreshThreshold > 2*time.Hour {
		warn("refresh_threshold_large", LintLow,
			"RefreshThreshold above 2h triggers a refresh on nearly every request when tokens are short-lived")
	}
	if !c.HTTP.RetryOnUnauthorized {
		warn("retry_disabled", LintMedium,
			"401 responses surface immediately instead of triggering one refresh-and-retry cycle")
	}
	if c.HTTP.Timeout > 2*time.Minute {
		warn("timeout_large", LintLow,
			"HTTP Timeout above 2m keeps refresh waiters parked on a stuck call")
	}
	if !c.Audit.Enabled {
		warn("audit_disabled", LintLow,
			"audit emission is off; auth activity will not be recorded")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		warn("audit_blocking", LintMedium,
			"a full audit queue will block request handling; set DropIfFull for non-blocking emission")
	}
	if !c.Throttle.Enabled {
		warn("throttle_disabled", LintLow,
			"no client-side pacing; request bursts reach the server unshaped")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		warn("latency_without_metrics", LintLow,
			"EnableLatencyHistograms has no effect while Metrics.Enabled is false")
	}
	return ws
}

func isLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
