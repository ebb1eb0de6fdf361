package goBearer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goBearer/session"
)

const testTokenSecret = "test-secret"

// mintSeq guarantees every minted token is a distinct string, like a real
// issuer's jti would. iat/exp truncate to seconds, so two same-second mints
// with equal claims are otherwise byte-identical — and the 401-retry tests
// tell the revoked credential from the rotated one by string comparison.
var mintSeq atomic.Int64

func mintRawToken(userID int64, email string, exp time.Time) string {
	claims := jwt.MapClaims{
		"sub":    email,
		"userId": userID,
		"iat":    time.Now().Add(-time.Minute).Unix(),
		"exp":    exp.Unix(),
		"jti":    strconv.FormatInt(mintSeq.Add(1), 10),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testTokenSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

func mintTestToken(tb testing.TB, userID int64, email string, exp time.Time) string {
	tb.Helper()
	return mintRawToken(userID, email, exp)
}

// authServer is the stub API the client tests talk to. It serves the auth
// surface plus a protected data endpoint and counts everything it sees.
type authServer struct {
	srv *httptest.Server

	tokenTTL time.Duration

	loginCalls       atomic.Int64
	refreshCalls     atomic.Int64
	logoutCalls      atomic.Int64
	verifyCalls      atomic.Int64
	setPasswordCalls atomic.Int64
	dataCalls        atomic.Int64

	loginStatus       atomic.Int32
	refreshStatus     atomic.Int32
	logoutStatus      atomic.Int32
	verifyStatus      atomic.Int32
	setPasswordStatus atomic.Int32

	refreshSawBody atomic.Bool

	mu              sync.Mutex
	granted         []string
	dataAuths       []string
	lastRefreshAuth string
	refreshGate     chan struct{}
	onData          func(w http.ResponseWriter, r *http.Request)
	onLogin         func(w http.ResponseWriter, r *http.Request)
}

func newAuthServer(tb testing.TB, tokenTTL time.Duration) *authServer {
	tb.Helper()

	a := &authServer{tokenTTL: tokenTTL}
	a.loginStatus.Store(http.StatusOK)
	a.refreshStatus.Store(http.StatusOK)
	a.logoutStatus.Store(http.StatusNoContent)
	a.verifyStatus.Store(http.StatusNoContent)
	a.setPasswordStatus.Store(http.StatusNoContent)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", a.handleLogin)
	mux.HandleFunc("/auth/refresh", a.handleRefresh)
	mux.HandleFunc("/auth/logout", a.handleLogout)
	mux.HandleFunc("/auth/verify", a.handleVerify)
	mux.HandleFunc("/auth/set-password", a.handleSetPassword)
	mux.HandleFunc("/", a.handleData)

	a.srv = httptest.NewServer(mux)
	tb.Cleanup(a.srv.Close)
	return a
}

func (a *authServer) grant(w http.ResponseWriter, userID int64, email string) {
	tok := mintRawToken(userID, email, time.Now().Add(a.tokenTTL))
	a.mu.Lock()
	a.granted = append(a.granted, tok)
	a.mu.Unlock()

	writeTestJSON(w, http.StatusOK, map[string]any{
		"token":        tok,
		"userId":       userID,
		"email":        email,
		"isSuperadmin": false,
	})
}

func (a *authServer) lastGranted() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.granted) == 0 {
		return ""
	}
	return a.granted[len(a.granted)-1]
}

func (a *authServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.loginCalls.Add(1)
	a.mu.Lock()
	override := a.onLogin
	a.mu.Unlock()
	if override != nil {
		override(w, r)
		return
	}
	if status := int(a.loginStatus.Load()); status != http.StatusOK {
		writeTestJSON(w, status, map[string]any{"error": "login refused"})
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeTestJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	a.grant(w, 7, body.Email)
}

func (a *authServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshCalls.Add(1)

	raw, _ := io.ReadAll(r.Body)
	if len(raw) > 0 {
		a.refreshSawBody.Store(true)
	}
	a.mu.Lock()
	a.lastRefreshAuth = r.Header.Get("Authorization")
	gate := a.refreshGate
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if status := int(a.refreshStatus.Load()); status != http.StatusOK {
		writeTestJSON(w, status, map[string]any{"error": "refresh refused"})
		return
	}
	a.grant(w, 7, "alice@example.com")
}

// gateRefresh parks the refresh handler until the returned channel closes,
// letting tests pile waiters onto one cycle.
func (a *authServer) gateRefresh() chan struct{} {
	gate := make(chan struct{})
	a.mu.Lock()
	a.refreshGate = gate
	a.mu.Unlock()
	return gate
}

func (a *authServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.logoutCalls.Add(1)
	w.WriteHeader(int(a.logoutStatus.Load()))
}

func (a *authServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	a.verifyCalls.Add(1)
	w.WriteHeader(int(a.verifyStatus.Load()))
}

func (a *authServer) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	a.setPasswordCalls.Add(1)
	w.WriteHeader(int(a.setPasswordStatus.Load()))
}

func (a *authServer) handleData(w http.ResponseWriter, r *http.Request) {
	a.dataCalls.Add(1)
	a.mu.Lock()
	a.dataAuths = append(a.dataAuths, r.Header.Get("Authorization"))
	handler := a.onData
	a.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	writeTestJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *authServer) seenDataAuths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.dataAuths))
	copy(out, a.dataAuths)
	return out
}

func (a *authServer) lastDataAuth() string {
	auths := a.seenDataAuths()
	if len(auths) == 0 {
		return ""
	}
	return auths[len(auths)-1]
}

func (a *authServer) setDataHandler(h func(w http.ResponseWriter, r *http.Request)) {
	a.mu.Lock()
	a.onData = h
	a.mu.Unlock()
}

func (a *authServer) setLoginHandler(h func(w http.ResponseWriter, r *http.Request)) {
	a.mu.Lock()
	a.onLogin = h
	a.mu.Unlock()
}

func (a *authServer) seenRefreshAuth() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRefreshAuth
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(tb testing.TB, a *authServer, mutate ...func(*Config)) (*Client, *ChannelLogoutHandler) {
	tb.Helper()

	cfg := DefaultConfig(a.srv.URL)
	for _, m := range mutate {
		m(&cfg)
	}

	handler := NewChannelLogoutHandler(4)
	client, err := New().
		WithConfig(cfg).
		WithLogoutHandler(handler).
		Build()
	if err != nil {
		tb.Fatalf("build client: %v", err)
	}
	tb.Cleanup(client.Close)
	return client, handler
}

// seedSession installs a session pair directly, bypassing the login flow.
func seedSession(tb testing.TB, c *Client, tok string, userID int64) {
	tb.Helper()

	err := c.store.Replace(context.Background(), session.Session{
		Token: tok,
		Identity: session.Identity{
			UserID: userID,
			Email:  "alice@example.com",
		},
	})
	if err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	c.signal.Arm()
}

func expectForcedLogout(t *testing.T, h *ChannelLogoutHandler, want error) {
	t.Helper()

	select {
	case cause := <-h.Causes():
		if !errors.Is(cause, want) {
			t.Fatalf("forced logout cause = %v, want %v", cause, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a forced logout notification")
	}
}

func expectNoForcedLogout(t *testing.T, h *ChannelLogoutHandler) {
	t.Helper()

	select {
	case cause := <-h.Causes():
		t.Fatalf("unexpected forced logout: %v", cause)
	case <-time.After(50 * time.Millisecond):
	}
}
