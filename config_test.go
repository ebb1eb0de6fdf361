package goBearer

import (
	"testing"
	"time"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://api.example.com"
	return cfg
}

func TestConfigValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "baseline valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "base url missing",
			mutate: func(c *Config) {
				c.API.BaseURL = ""
			},
			wantValid: false,
		},
		{
			name: "base url bad scheme",
			mutate: func(c *Config) {
				c.API.BaseURL = "ftp://api.example.com"
			},
			wantValid: false,
		},
		{
			name: "base url no host",
			mutate: func(c *Config) {
				c.API.BaseURL = "https://"
			},
			wantValid: false,
		},
		{
			name: "base url with path valid",
			mutate: func(c *Config) {
				c.API.BaseURL = "https://api.example.com/v2"
			},
			wantValid: true,
		},
		{
			name: "auth base missing slash",
			mutate: func(c *Config) {
				c.API.AuthBase = "auth"
			},
			wantValid: false,
		},
		{
			name: "refresh threshold zero valid",
			mutate: func(c *Config) {
				c.Token.RefreshThreshold = 0
			},
			wantValid: true,
		},
		{
			name: "refresh threshold negative",
			mutate: func(c *Config) {
				c.Token.RefreshThreshold = -time.Minute
			},
			wantValid: false,
		},
		{
			name: "http timeout zero",
			mutate: func(c *Config) {
				c.HTTP.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "max response bytes negative",
			mutate: func(c *Config) {
				c.HTTP.MaxResponseBytes = -1
			},
			wantValid: false,
		},
		{
			name: "max response bytes unlimited valid",
			mutate: func(c *Config) {
				c.HTTP.MaxResponseBytes = 0
			},
			wantValid: true,
		},
		{
			name: "credential slot empty",
			mutate: func(c *Config) {
				c.Store.CredentialSlot = ""
			},
			wantValid: false,
		},
		{
			name: "identity slot empty",
			mutate: func(c *Config) {
				c.Store.IdentitySlot = ""
			},
			wantValid: false,
		},
		{
			name: "slots must differ",
			mutate: func(c *Config) {
				c.Store.CredentialSlot = "slot"
				c.Store.IdentitySlot = "slot"
			},
			wantValid: false,
		},
		{
			name: "throttle enabled without rate",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.RequestsPerSecond = 0
				c.Throttle.Burst = 10
			},
			wantValid: false,
		},
		{
			name: "throttle enabled without burst",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.RequestsPerSecond = 10
				c.Throttle.Burst = 0
			},
			wantValid: false,
		},
		{
			name: "throttle enabled valid",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.RequestsPerSecond = 10
				c.Throttle.Burst = 20
			},
			wantValid: true,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit enabled valid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 64
			},
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestDefaultConfigDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.AuthBase != "/auth" {
		t.Fatalf("AuthBase = %q, want /auth", cfg.API.AuthBase)
	}
	if cfg.Token.RefreshThreshold != 30*time.Minute {
		t.Fatalf("RefreshThreshold = %v, want 30m", cfg.Token.RefreshThreshold)
	}
	if !cfg.HTTP.RetryOnUnauthorized {
		t.Fatal("expected RetryOnUnauthorized enabled by default")
	}
	if cfg.Store.CredentialSlot != "token" || cfg.Store.IdentitySlot != "identity" {
		t.Fatalf("unexpected default slots %q/%q", cfg.Store.CredentialSlot, cfg.Store.IdentitySlot)
	}
	if cfg.Audit.Enabled || cfg.Metrics.Enabled || cfg.Throttle.Enabled {
		t.Fatal("audit, metrics, and throttle must default to off")
	}
}

func TestCloneConfigIsIndependent(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)
	clone.API.BaseURL = "https://other.example.com"
	clone.Token.RefreshThreshold = time.Hour

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatal("mutating the clone changed the original BaseURL")
	}
	if cfg.Token.RefreshThreshold != 30*time.Minute {
		t.Fatal("mutating the clone changed the original RefreshThreshold")
	}
}
