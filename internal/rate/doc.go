// Package rate provides the client-side outbound request throttle.
//
// # Pacing semantics
//
// Token bucket on golang.org/x/time/rate: Wait blocks until a slot frees up
// or the context is done. The throttle paces every outgoing call uniformly,
// refresh traffic included, so a burst of business calls cannot starve the
// credential path.
//
// # What this package must NOT do
//
//   - Reject requests (it delays; it only fails on context cancellation).
//   - Be imported outside the goBearer module.
package rate
