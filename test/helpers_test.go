//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	goBearer "github.com/MrEthical07/goBearer"
	"github.com/MrEthical07/goBearer/session"
)

const integrationSecret = "integration-secret"

func mintToken(t *testing.T, userID int64, email string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    email,
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(integrationSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return signed
}

func newIntegrationRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationBackend(t *testing.T) (*session.RedisBackend, func()) {
	t.Helper()

	rdb, cleanup := newIntegrationRedis(t)
	backend, err := session.NewRedisBackend(rdb, "gb-it", "token", "identity")
	if err != nil {
		cleanup()
		t.Fatalf("redis backend: %v", err)
	}
	return backend, cleanup
}

// bearerAPI is the stub product API the integration suite drives. Every
// grant carries tokenTTL of validity; refreshCalls counts wire refreshes.
// A non-zero refreshDelay parks the refresh handler so tests can guarantee
// waiters pile onto an in-flight cycle.
type bearerAPI struct {
	srv *httptest.Server

	tokenTTL     time.Duration
	refreshDelay atomic.Int64
	refreshCalls atomic.Int64
	dataCalls    atomic.Int64
}

func newBearerAPI(t *testing.T, tokenTTL time.Duration) *bearerAPI {
	t.Helper()

	a := &bearerAPI{tokenTTL: tokenTTL}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		a.grant(t, w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		a.refreshCalls.Add(1)
		if d := time.Duration(a.refreshDelay.Load()); d > 0 {
			time.Sleep(d)
		}
		a.grant(t, w)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		a.dataCalls.Add(1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	a.srv = httptest.NewServer(mux)
	t.Cleanup(a.srv.Close)
	return a
}

func (a *bearerAPI) grant(t *testing.T, w http.ResponseWriter) {
	tok := mintToken(t, 7, "alice@example.com", a.tokenTTL)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":        tok,
		"userId":       7,
		"email":        "alice@example.com",
		"isSuperadmin": false,
	})
}

func newIntegrationClient(t *testing.T, api *bearerAPI, backend session.Backend) *goBearer.Client {
	t.Helper()

	cfg := goBearer.DefaultConfig(api.srv.URL)
	cfg.Metrics.Enabled = true

	b := goBearer.New().WithConfig(cfg)
	if backend != nil {
		b = b.WithBackend(backend)
	}
	client, err := b.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
