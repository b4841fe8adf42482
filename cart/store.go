package cart

import (
	"context"
	"sync"

	"github.com/medatechnology/goutil/medaerror"
)

// ErrBlobNotFound is returned by BlobStore.Load when no cart exists for the
// session key. The Service treats it as an empty cart.
var ErrBlobNotFound medaerror.MedaError = medaerror.MedaError{Message: "cart blob not found"}

// BlobStore persists opaque cart blobs keyed by session id. Implementations
// must treat the payload as opaque bytes; the Service owns the encoding.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryBlobStore keeps cart blobs in a map. Meant for tests and single
// process setups; use RedisBlobStore when sessions are shared.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

func (s *MemoryBlobStore) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[key] = cp
	return nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
