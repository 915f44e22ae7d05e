package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
	"github.com/kailas-cloud/docapi/internal/preprocess"
	docrepo "github.com/kailas-cloud/docapi/internal/repository/document"
)

const header = "NOME DA STARTUP,DESCRIÇÃO LONGA,TAGS,CATEGORIA\n"

// failingStore fails the configured operation.
type failingStore struct {
	deleteErr error
	writeErr  error
	deletes   int
}

func (f *failingStore) Delete(_ context.Context, _ filter.Filter) (int, error) {
	f.deletes++
	return 0, f.deleteErr
}

func (f *failingStore) Write(_ context.Context, _ []domdoc.Document) error {
	return f.writeErr
}

type stubEmbedder struct {
	dim   int
	err   error
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: make([]float32, e.dim)}, nil
}

var errProvider = errors.New("provider down")

func newTestService(t *testing.T, store Store, embedder domain.Embedder) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	pp, err := preprocess.New(preprocess.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("preprocessor: %v", err)
	}
	return New(store, pp, NewStager(dir), embedder, zap.NewNop()), dir
}

func allDocs(t *testing.T, m *docrepo.Memory) []domdoc.Document {
	t.Helper()
	docs, err := m.GetAll(context.Background(), filter.Filter{})
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	return docs
}
