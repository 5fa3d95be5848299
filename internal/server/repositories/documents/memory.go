package documents

import (
	"context"
	"sync"
)

// MemoryRepository keeps documents in a map. Contents are lost on restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, path string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.docs[path]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (r *MemoryRepository) Put(_ context.Context, path string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[path] = append([]byte(nil), body...)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, path)
	return nil
}
