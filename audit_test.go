package goBearer

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

func collectAuditEvents(t *testing.T, sink *ChannelSink, until func([]AuditEvent) bool) []AuditEvent {
	t.Helper()

	var events []AuditEvent
	timeout := time.After(2 * time.Second)
	for !until(events) {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out collecting audit events, have %d", len(events))
		}
	}
	return events
}

func drainAuditEvents(sink *ChannelSink) []AuditEvent {
	// Give the dispatcher worker a moment to flush what is queued.
	time.Sleep(100 * time.Millisecond)

	var events []AuditEvent
	for {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	srv := newAuthServer(t, 2*time.Hour)

	// Audit stays off in the default config even when a sink is supplied.
	sink := &countingSink{}
	client, err := New().
		WithBaseURL(srv.srv.URL).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := client.Login(context.Background(), "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
	if client.AuditDropped() != 0 {
		t.Fatal("expected zero dropped events when disabled")
	}
}

func TestAuditEnabledSinkReceivesLoginEvent(t *testing.T) {
	srv := newAuthServer(t, 2*time.Hour)
	sink := NewChannelSink(8)
	client := newAuditTestClient(t, srv, sink)

	ctx := WithRequestID(context.Background(), "rid-login-1")
	if _, err := client.Login(ctx, "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != auditEventLoginSuccess {
			t.Fatalf("event type = %q, want %q", ev.EventType, auditEventLoginSuccess)
		}
		if ev.UserID != 7 {
			t.Fatalf("user_id = %d, want 7", ev.UserID)
		}
		if !ev.Success {
			t.Fatal("expected a success event")
		}
		if ev.RequestID != "rid-login-1" {
			t.Fatalf("request_id = %q, want rid-login-1", ev.RequestID)
		}
		if ev.Path != "/auth/login" {
			t.Fatalf("path = %q, want /auth/login", ev.Path)
		}
		if ev.Error != "" {
			t.Fatalf("success event carries error code %q", ev.Error)
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("expected a populated timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an audit event")
	}
}

func TestAuditFailureEventCarriesErrorCode(t *testing.T) {
	srv := newAuthServer(t, 2*time.Hour)
	srv.loginStatus.Store(401)

	sink := NewChannelSink(8)
	client := newAuditTestClient(t, srv, sink)

	if _, err := client.Login(context.Background(), "alice@example.com", "wrong-password"); err == nil {
		t.Fatal("expected login to fail")
	}

	events := collectAuditEvents(t, sink, func(evs []AuditEvent) bool {
		return len(evs) >= 1
	})
	ev := events[0]
	if ev.EventType != auditEventLoginFailure {
		t.Fatalf("event type = %q, want %q", ev.EventType, auditEventLoginFailure)
	}
	if ev.Success {
		t.Fatal("expected a failure event")
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("error code = %q, want %q", ev.Error, auditErrInvalidCredentials)
	}
	if ev.Metadata["reason"] != "rejected" {
		t.Fatalf("reason = %q, want rejected", ev.Metadata["reason"])
	}
}

func TestForcedLogoutAuditedOncePerSession(t *testing.T) {
	srv := newAuthServer(t, 2*time.Hour)
	sink := NewChannelSink(32)
	client := newAuditTestClient(t, srv, sink)

	seedSession(t, client, mintTestToken(t, 7, "alice@example.com", time.Now().Add(-time.Minute)), 7)

	if _, err := client.Get(context.Background(), "/data"); err == nil {
		t.Fatal("expected the expired credential to fail")
	}
	// After teardown the next request goes out anonymously.
	if _, err := client.Get(context.Background(), "/data"); err != nil {
		t.Fatalf("anonymous request failed: %v", err)
	}

	events := collectAuditEvents(t, sink, func(evs []AuditEvent) bool {
		for _, ev := range evs {
			if ev.EventType == auditEventForcedLogout {
				return true
			}
		}
		return false
	})
	events = append(events, drainAuditEvents(sink)...)

	var expired, forced int
	for _, ev := range events {
		switch ev.EventType {
		case auditEventTokenExpired:
			expired++
			if ev.UserID != 7 {
				t.Fatalf("token_expired user_id = %d, want 7", ev.UserID)
			}
		case auditEventForcedLogout:
			forced++
			if ev.Error != string(auditErrTokenExpired) {
				t.Fatalf("forced_logout error code = %q, want %q", ev.Error, auditErrTokenExpired)
			}
		}
	}
	if expired != 1 {
		t.Fatalf("token_expired events = %d, want 1", expired)
	}
	if forced != 1 {
		t.Fatalf("forced_logout events = %d, want 1", forced)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	srv := newAuthServer(t, 2*time.Hour)
	sink := NewChannelSink(32)
	client := newAuditTestClient(t, srv, sink)

	const sensitivePassword = "correct-password-123"
	if _, err := client.Login(context.Background(), "alice@example.com", sensitivePassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := client.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	events := collectAuditEvents(t, sink, func(evs []AuditEvent) bool {
		return len(evs) >= 2
	})
	events = append(events, drainAuditEvents(sink)...)

	secretNeedles := []string{sensitivePassword}
	srv.mu.Lock()
	secretNeedles = append(secretNeedles, srv.granted...)
	srv.mu.Unlock()

	for _, ev := range events {
		for _, needle := range secretNeedles {
			if needle == "" {
				continue
			}
			if strings.Contains(ev.Error, needle) || strings.Contains(ev.Path, needle) {
				t.Fatalf("sensitive value leaked in %s event", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in %s metadata", ev.EventType)
				}
			}
		}
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		UserID:    7,
		Success:   true,
	})

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain the event type")
	}
	if !buf.Contains("\"user_id\":7") {
		t.Fatal("expected JSON log line to contain the user id")
	}
}

func newAuditTestClient(t *testing.T, srv *authServer, sink AuditSink) *Client {
	t.Helper()

	cfg := DefaultConfig(srv.srv.URL)
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false

	client, err := New().
		WithConfig(cfg).
		WithAuditSink(sink).
		WithLogoutHandler(NewChannelLogoutHandler(4)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}
