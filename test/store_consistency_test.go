//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goBearer/session"
	"github.com/MrEthical07/goBearer/token"
)

func matchedPair(t *testing.T, userID int64) session.Session {
	t.Helper()
	email := fmt.Sprintf("user%d@example.com", userID)
	return session.Session{
		Token:    mintToken(t, userID, email, time.Hour),
		Identity: session.Identity{UserID: userID, Email: email},
	}
}

// TestStoreConsistencySnapshotNeverTorn hammers Replace from many writers
// while readers take snapshots. Every snapshot must be a matched pair: the
// user ID inside the credential equals the user ID of the identity beside it.
func TestStoreConsistencySnapshotNeverTorn(t *testing.T) {
	ctx := context.Background()
	backend, cleanup := newIntegrationBackend(t)
	defer cleanup()

	store, err := session.Open(ctx, backend)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Replace(ctx, matchedPair(t, 100)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const (
		writers    = 4
		iterations = 50
	)

	// Pre-mint so writers don't spend their window signing JWTs.
	pairs := make([]session.Session, writers*iterations)
	for i := range pairs {
		pairs[i] = matchedPair(t, int64(101+i))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if err := store.Replace(ctx, pairs[w*iterations+i]); err != nil {
					t.Errorf("replace: %v", err)
					return
				}
			}
		}(w)
	}

	const readers = 4
	var rg sync.WaitGroup
	rg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer rg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				sess, ok := store.Snapshot()
				if !ok {
					t.Error("snapshot lost the session mid-replace")
					return
				}
				claims, err := token.Decode(sess.Token)
				if err != nil {
					t.Errorf("snapshot credential undecodable: %v", err)
					return
				}
				if claims.UserID != sess.Identity.UserID {
					t.Errorf("torn pair: credential user %d beside identity user %d",
						claims.UserID, sess.Identity.UserID)
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	rg.Wait()
}

// TestStoreConsistencyClearIsIdempotent verifies clearing twice is harmless
// and leaves neither the in-process slot nor the backend holding a session.
func TestStoreConsistencyClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend, cleanup := newIntegrationBackend(t)
	defer cleanup()

	store, err := session.Open(ctx, backend)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Replace(ctx, matchedPair(t, 200)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear should be idempotent: %v", err)
	}

	if _, ok := store.Snapshot(); ok {
		t.Fatal("snapshot still reports a session after clear")
	}
	credential, identity, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("backend load: %v", err)
	}
	if credential != "" || identity != nil {
		t.Fatalf("backend still holds (%q, %v) after clear", credential, identity)
	}
}

// TestStoreConsistencyBackendMirrorsSlot verifies that after racing Replace
// and Clear the backend agrees with the in-process slot: a later Open resumes
// exactly what Snapshot reports.
func TestStoreConsistencyBackendMirrorsSlot(t *testing.T) {
	ctx := context.Background()
	backend, cleanup := newIntegrationBackend(t)
	defer cleanup()

	store, err := session.Open(ctx, backend)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			_ = store.Replace(ctx, matchedPair(t, int64(300+i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			_ = store.Clear(ctx)
		}
	}()
	wg.Wait()

	inProcess, ok := store.Snapshot()

	reopened, err := session.Open(ctx, backend)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	persisted, persistedOK := reopened.Snapshot()

	if ok != persistedOK {
		t.Fatalf("slot and backend disagree: in-process ok=%v, persisted ok=%v", ok, persistedOK)
	}
	if ok && (persisted.Token != inProcess.Token || persisted.Identity != inProcess.Identity) {
		t.Fatalf("backend resumed %+v, in-process slot holds %+v", persisted, inProcess)
	}
}
