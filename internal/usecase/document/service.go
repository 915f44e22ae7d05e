package document

import (
	"context"
	"fmt"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// Service answers filter queries and filtered deletes against the document store.
type Service struct {
	repo Repository
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByFilters returns every matching document in store order, with embeddings stripped.
func (s *Service) GetByFilters(ctx context.Context, f filter.Filter) ([]domdoc.Document, error) {
	docs, err := s.repo.GetAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	out := make([]domdoc.Document, len(docs))
	for i := range docs {
		out[i] = docs[i].WithoutEmbedding()
	}
	return out, nil
}

// DeleteByFilters removes every matching document. An empty filter clears the store.
func (s *Service) DeleteByFilters(ctx context.Context, f filter.Filter) (int, error) {
	n, err := s.repo.Delete(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// Count returns the number of stored documents.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
