package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. Used by tests and dry
// runs.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[Collection]Document
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[Collection]Document)}
}

func (m *MemoryBackend) Load(_ context.Context, collection Collection) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docs[collection]
	return Document{Data: append([]byte(nil), doc.Data...), Version: doc.Version}, nil
}

func (m *MemoryBackend) Commit(_ context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if m.docs[w.Collection].Version != w.Version {
			return ErrVersionConflict
		}
	}
	for _, w := range writes {
		m.docs[w.Collection] = Document{Data: append([]byte(nil), w.Data...), Version: w.Version + 1}
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
