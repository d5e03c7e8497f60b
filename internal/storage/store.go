// Package storage provides the document store implementations behind the
// wizard's upload boundary: a GCS-backed store for deployments and an
// in-memory store for development and tests.
package storage

import (
	"context"
	"fmt"
	"sync"

	"firecert/internal/wizard"
)

// MemoryStore keeps uploaded documents in process memory. Used when no
// bucket is configured and throughout the test suite.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the file under a fresh key and returns an opaque reference.
// Each attempt writes a new key, so a retry never collides with a partial
// earlier attempt.
func (m *MemoryStore) Upload(_ context.Context, slug string, f *wizard.StagedFile) (string, error) {
	if f == nil {
		return "", fmt.Errorf("no file staged for %q", slug)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("mem://documents/%s/%d/%s", slug, m.seq, f.Name)
	content := make([]byte, len(f.Content))
	copy(content, f.Content)
	m.objects[key] = content
	return key, nil
}

// Get returns a stored object's content, for tests.
func (m *MemoryStore) Get(ref string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[ref]
	return b, ok
}

// Len reports how many objects the store holds.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
