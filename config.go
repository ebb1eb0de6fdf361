package goBearer

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

/* ==================== API ==================== */

// APIConfig describes where the backing HTTP API lives and where its
// authentication surface is mounted.
//
//	Docs: docs/usage.md
type APIConfig struct {
	// BaseURL is the absolute root of the API, e.g. "https://api.example.com".
	// All request paths passed to [Client.Request] are resolved against it.
	BaseURL string

	// AuthBase is the path prefix of the authentication surface, relative to
	// BaseURL. Requests under this prefix are exempt from credential
	// handling. Default: "/auth".
	AuthBase string
}

/* ==================== Token ==================== */

// TokenConfig controls local credential inspection.
//
//	Docs: docs/refresh.md
type TokenConfig struct {
	// RefreshThreshold is the remaining-lifetime window below which the
	// client refreshes the credential before using it. Zero disables
	// proactive refresh; expiry handling still applies. Default: 30m.
	RefreshThreshold time.Duration
}

/* ==================== HTTP ==================== */

// HTTPConfig controls the outbound HTTP behavior of the client.
//
//	Docs: docs/transport.md
type HTTPConfig struct {
	// Timeout bounds every outbound request, including the internal
	// refresh call. Default: 30s.
	Timeout time.Duration

	// UserAgent is sent on every request. Default: "goBearer/1".
	UserAgent string

	// MaxResponseBytes caps how much of a response body the client reads.
	// Zero means unlimited. Default: 16 MiB.
	MaxResponseBytes int64

	// RetryOnUnauthorized enables the single refresh-and-retry cycle after
	// a 401 response. Default: true.
	RetryOnUnauthorized bool
}

/* ==================== Store ==================== */

// StoreConfig controls session persistence.
//
//	Docs: docs/session.md
type StoreConfig struct {
	// RedisPrefix namespaces the persisted slots when a Redis backend is
	// used. Default: "gb".
	RedisPrefix string

	// CredentialSlot is the storage key holding the raw bearer credential.
	// Default: "token".
	CredentialSlot string

	// IdentitySlot is the storage key holding the encoded identity.
	// Default: "identity".
	IdentitySlot string
}

/* ==================== Throttle ==================== */

// ThrottleConfig controls the client-side outbound request throttle.
type ThrottleConfig struct {
	// Enabled turns the throttle on. Default: false.
	Enabled bool

	// RequestsPerSecond is the sustained pace once the burst budget is
	// exhausted.
	RequestsPerSecond float64

	// Burst is how many requests may proceed immediately before pacing
	// kicks in.
	Burst int
}

/* ==================== Audit ==================== */

// AuditConfig controls asynchronous audit event dispatch.
//
//	Docs: docs/audit.md
type AuditConfig struct {
	// Enabled turns audit emission on. Default: false.
	Enabled bool

	// BufferSize is the capacity of the dispatch queue. Default: 1024.
	BufferSize int

	// DropIfFull makes Emit non-blocking: when the queue is full, events
	// are counted as dropped instead of blocking request handling.
	// Default: true.
	DropIfFull bool
}

/* ==================== Metrics ==================== */

// MetricsConfig controls the in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricsConfig struct {
	// Enabled turns counters on. Default: false.
	Enabled bool

	// EnableLatencyHistograms additionally records request and refresh
	// latency distributions. Requires Enabled. Default: false.
	EnableLatencyHistograms bool
}

/* ==================== Config ==================== */

// Config aggregates every tunable of the client. Configs are intended to be
// set up once, passed to the [Builder], and then treated as immutable.
//
//	Docs: docs/usage.md
type Config struct {
	API      APIConfig
	Token    TokenConfig
	HTTP     HTTPConfig
	Store    StoreConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			AuthBase: "/auth",
		},
		Token: TokenConfig{
			RefreshThreshold: 30 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:             30 * time.Second,
			UserAgent:           "goBearer/1",
			MaxResponseBytes:    16 << 20,
			RetryOnUnauthorized: true,
		},
		Store: StoreConfig{
			RedisPrefix:    "gb",
			CredentialSlot: "token",
			IdentitySlot:   "identity",
		},
		Throttle: ThrottleConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate checks the configuration for hard errors. It returns the first
// problem found; advisory checks live in [Config.Lint].
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.New("API BaseURL must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL must use http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if !strings.HasPrefix(c.API.AuthBase, "/") {
		return errors.New("API AuthBase must start with /")
	}
	if c.Token.RefreshThreshold < 0 {
		return errors.New("Token RefreshThreshold must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be greater than zero")
	}
	if c.HTTP.MaxResponseBytes < 0 {
		return errors.New("HTTP MaxResponseBytes must not be negative")
	}
	if c.Store.CredentialSlot == "" {
		return errors.New("Store CredentialSlot must be set")
	}
	if c.Store.IdentitySlot == "" {
		return errors.New("Store IdentitySlot must be set")
	}
	if c.Store.CredentialSlot == c.Store.IdentitySlot {
		return errors.New("Store CredentialSlot and IdentitySlot must differ")
	}
	if c.Throttle.Enabled {
		if c.Throttle.RequestsPerSecond <= 0 {
			return errors.New("Throttle RequestsPerSecond must be greater than zero when enabled")
		}
		if c.Throttle.Burst < 1 {
			return errors.New("Throttle Burst must be at least 1 when enabled")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be greater than zero when enabled")
	}
	return nil
}
