package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend persists the two slots as two files in a directory, one named
// after the credential slot and one after the identity slot. Writes go
// through a temp file plus rename so a crash never leaves a torn slot.
//
// Credentials are secrets: files are created 0600 and the directory 0700.
type FileBackend struct {
	dir           string
	credentialKey string
	identityKey   string
}

// NewFileBackend describes the newfilebackend operation and its observable behavior.
func NewFileBackend(dir, credentialKey, identityKey string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("file backend requires a directory")
	}
	if credentialKey == "" || identityKey == "" {
		return nil, errors.New("file backend requires slot names")
	}
	if credentialKey == identityKey {
		return nil, errors.New("file backend slot names must differ")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	return &FileBackend{
		dir:           dir,
		credentialKey: credentialKey,
		identityKey:   identityKey,
	}, nil
}

// Load describes the load operation and its observable behavior.
func (b *FileBackend) Load(context.Context) (string, []byte, error) {
	credential, err := os.ReadFile(b.slotPath(b.credentialKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, err
	}

	identity, err := os.ReadFile(b.slotPath(b.identityKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Half a pair: report it so the store can heal.
			return string(credential), nil, nil
		}
		return "", nil, err
	}

	return string(credential), identity, nil
}

// Store describes the store operation and its observable behavior.
func (b *FileBackend) Store(_ context.Context, credential string, identity []byte) error {
	if err := b.writeSlot(b.credentialKey, []byte(credential)); err != nil {
		return err
	}
	return b.writeSlot(b.identityKey, identity)
}

// Clear describes the clear operation and its observable behavior.
func (b *FileBackend) Clear(context.Context) error {
	if err := removeSlot(b.slotPath(b.credentialKey)); err != nil {
		return err
	}
	return removeSlot(b.slotPath(b.identityKey))
}

func (b *FileBackend) slotPath(key string) string {
	return filepath.Join(b.dir, key)
}

func (b *FileBackend) writeSlot(key string, data []byte) error {
	path := b.slotPath(key)

	tmp, err := os.CreateTemp(b.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func removeSlot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
