package audit

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

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDispatcherDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := NewDispatcher(1, true, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{EventType: "e1"})
	dispatcher.Emit(context.Background(), Event{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), Event{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when dropIfFull is set")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestDispatcherBlocksUntilSpaceWithoutDropIfFull(t *testing.T) {
	sink := newGateSink()
	dispatcher := NewDispatcher(1, false, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{EventType: "e1"})
	dispatcher.Emit(context.Background(), Event{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), Event{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := NewDispatcher(4, true, &countingSink{})

	dispatcher.Emit(context.Background(), Event{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), Event{EventType: "e2"})
}

func TestDispatcherCloseFlushesBufferedEvents(t *testing.T) {
	sink := &countingSink{}
	dispatcher := NewDispatcher(16, false, sink)

	for i := 0; i < 10; i++ {
		dispatcher.Emit(context.Background(), Event{EventType: "e"})
	}
	dispatcher.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 events flushed on close, got %d", got)
	}
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var dispatcher *Dispatcher

	dispatcher.Emit(context.Background(), Event{EventType: "e1"})
	dispatcher.Close()
	if dispatcher.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: "login_success",
		UserID:    7,
		RequestID: "req-1",
		Path:      "/auth/login",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"user_id\":7") {
		t.Fatal("expected JSON log line to contain user id")
	}
	if !buf.Contains("\"request_id\":\"req-1\"") {
		t.Fatal("expected JSON log line to contain request id")
	}
}

func TestChannelSinkDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(4)
	dispatcher := NewDispatcher(4, false, sink)

	dispatcher.Emit(context.Background(), Event{EventType: "first"})
	dispatcher.Emit(context.Background(), Event{EventType: "second"})
	dispatcher.Close()

	if ev := <-sink.Events(); ev.EventType != "first" {
		t.Fatalf("expected first event, got %q", ev.EventType)
	}
	if ev := <-sink.Events(); ev.EventType != "second" {
		t.Fatalf("expected second event, got %q", ev.EventType)
	}
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
