package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBackendUnavailable is an exported constant or variable used by the client engine.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// ErrIdentityCorrupt is returned when the identity slot holds something that
// is not a serialized identity.
var ErrIdentityCorrupt = errors.New("identity slot corrupt")

// ErrSessionInvalid is returned when a session with an empty credential is
// offered to the store.
var ErrSessionInvalid = errors.New("invalid session")

// Backend persists the two named slots behind the [Store]: the raw credential
// string and the identity JSON. Load reports an absent pair as empty values
// with a nil error; errors are reserved for the medium itself failing.
//
// Both slots are written together by Store and removed together by Clear —
// implementations must never leave one without the other on their own
// happy path.
type Backend interface {
	Load(ctx context.Context) (credential string, identity []byte, err error)
	Store(ctx context.Context, credential string, identity []byte) error
	Clear(ctx context.Context) error
}

// Store is the process-wide credential slot: an owned (credential, identity)
// pair swapped wholesale, with write-through persistence. Reads never observe
// a half-updated pair.
//
// Write discipline: only the login flow, the refresh coordinator, and logout
// paths may call [Store.Replace] or [Store.Clear]. Everything else is a
// reader and re-reads via [Store.Snapshot] immediately before each decision.
//
//	Docs: docs/session.md
type Store struct {
	backend Backend

	mu  sync.RWMutex
	cur *Session
}

// Open builds a store over backend and rehydrates the persisted pair. A pair
// with only one readable slot counts as no session; the leftover slot is
// cleared best-effort so the next start sees a clean backend.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}

	s := &Store{backend: backend}

	credential, identityRaw, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if credential == "" || len(identityRaw) == 0 {
		if credential != "" || len(identityRaw) != 0 {
			_ = backend.Clear(ctx)
		}
		return s, nil
	}

	identity, err := DecodeIdentity(identityRaw)
	if err != nil {
		_ = backend.Clear(ctx)
		return s, nil
	}

	s.cur = &Session{Token: credential, Identity: identity}
	return s, nil
}

// Snapshot returns a copy of the current pair and whether one exists.
func (s *Store) Snapshot() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cur == nil {
		return Session{}, false
	}
	return *s.cur, true
}

// Replace swaps the pair wholesale and writes both slots through to the
// backend. On backend failure the in-process pair is left untouched.
func (s *Store) Replace(ctx context.Context, sess Session) error {
	if sess.Token == "" {
		return ErrSessionInvalid
	}

	identityRaw, err := EncodeIdentity(sess.Identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Store(ctx, sess.Token, identityRaw); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.cur = &sess
	return nil
}

// Clear removes the pair wholesale, both slots together. Clearing an already
// empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.cur = nil
	return nil
}
