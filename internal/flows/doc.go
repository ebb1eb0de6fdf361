// Package flows contains pure-function orchestrators for every auth-surface
// operation of the client.
//
// Each flow function (RunLogin, RunRefresh, RunVerify, etc.) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This design enables exhaustive unit testing with mock
// dependencies and keeps the Client type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the server's auth endpoints, the grant
// decoder, and the session store. They do NOT own any of these resources —
// ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goBearer (to avoid import cycles).
//   - Perform I/O directly — all I/O is mediated through dependency interfaces.
package flows
