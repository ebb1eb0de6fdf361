// Package goBearer provides an authenticated HTTP client with unverified
// bearer-token inspection, single-flight proactive refresh, a process-wide
// session pair, and a single refresh-and-retry cycle after a 401.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goBearer is the public surface. It exposes [Client], [Builder], [Config],
// and value types (Response, MetricsSnapshot, AuditEvent, etc.). All internal
// coordination — flow orchestration, audit dispatch, metrics, throttling —
// lives under internal/ and is never exported. Token inspection and session
// persistence live in the token and session sub-packages, which are public
// because callers may want them standalone.
//
// # What this package must NOT do
//
//   - Verify token signatures. The server is the only verifier; the client
//     inspects claims solely for timing decisions.
//   - Interpret response bodies of non-auth endpoints. Any HTTP status the
//     server produced is handed back untouched.
//   - Import any sub-package that re-imports goBearer (no import cycles).
//
// # Concurrency contract
//
// The session pair is swapped wholesale; readers never observe a
// half-updated credential/identity pair. Concurrent requests that find the
// credential inside the refresh window produce exactly one refresh call and
// share its outcome. A failed refresh tears the session down once, rejects
// every waiter with the same error, and notifies the logout handler at most
// once per established session.
package goBearer
