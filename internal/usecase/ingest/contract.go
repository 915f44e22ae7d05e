package ingest

import (
	"context"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// Store is the document store the ingest pipeline resets and fills.
type Store interface {
	Delete(ctx context.Context, f filter.Filter) (removed int, err error)
	Write(ctx context.Context, docs []domdoc.Document) error
}

// Splitter cleans and segments row documents into stored chunks.
type Splitter interface {
	Process(ctx context.Context, docs []domdoc.Document) ([]domdoc.Document, error)
}
