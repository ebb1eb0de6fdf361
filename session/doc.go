// Package session owns the client's credential state: the in-process
// (credential, identity) pair and its write-through persistence.
//
// # Slot model
//
// Persistence is two named slots — the raw credential string and the identity
// serialized as JSON. The two are always written together and removed
// together; a backend holding only one of them is treated as holding no
// session at all.
//
// # Architecture boundaries
//
// This package owns the [Store] (atomic pair swaps, rehydration) and the
// [Backend] implementations (memory, file, Redis). It does NOT decode bearer
// tokens, decide when to refresh, or talk to the API — those responsibilities
// belong to the client engine.
//
// # What this package must NOT do
//
//   - Import goBearer or token (no upward imports).
//   - Initiate network calls other than backend persistence.
//   - Interpret the identity it stores.
package session
