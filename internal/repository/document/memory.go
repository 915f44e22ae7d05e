package document

import (
	"context"
	"slices"
	"sync"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// Memory is an in-process document store that keeps insertion order.
type Memory struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]domdoc.Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]domdoc.Document)}
}

// GetAll returns every document matching f in insertion order.
func (m *Memory) GetAll(_ context.Context, f filter.Filter) ([]domdoc.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domdoc.Document, 0)
	for _, id := range m.order {
		doc := m.docs[id]
		if f.Matches(&doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Delete removes every document matching f.
func (m *Memory) Delete(_ context.Context, f filter.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.order)
	m.order = slices.DeleteFunc(m.order, func(id string) bool {
		doc := m.docs[id]
		if !f.Matches(&doc) {
			return false
		}
		delete(m.docs, id)
		return true
	})
	return before - len(m.order), nil
}

// Write stores docs; a document with an existing ID replaces it in place.
func (m *Memory) Write(_ context.Context, docs []domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range docs {
		if _, ok := m.docs[doc.ID()]; !ok {
			m.order = append(m.order, doc.ID())
		}
		m.docs[doc.ID()] = doc
	}
	return nil
}

// Count returns the number of stored documents.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}
