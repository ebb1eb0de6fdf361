package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the two slots in process memory. It is the default
// backend: nothing survives a restart, which is exactly what short-lived
// tools want.
type MemoryBackend struct {
	mu         sync.Mutex
	credential string
	identity   []byte
}

// NewMemoryBackend describes the newmemorybackend operation and its observable behavior.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load describes the load operation and its observable behavior.
func (b *MemoryBackend) Load(context.Context) (string, []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.credential == "" || len(b.identity) == 0 {
		return "", nil, nil
	}

	identity := make([]byte, len(b.identity))
	copy(identity, b.identity)
	return b.credential, identity, nil
}

// Store describes the store operation and its observable behavior.
func (b *MemoryBackend) Store(_ context.Context, credential string, identity []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.credential = credential
	b.identity = make([]byte, len(identity))
	copy(b.identity, identity)
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (b *MemoryBackend) Clear(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.credential = ""
	b.identity = nil
	return nil
}
