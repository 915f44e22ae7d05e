package document

import (
	"context"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// Repository defines the storage contract for documents.
type Repository interface {
	GetAll(ctx context.Context, f filter.Filter) ([]domdoc.Document, error)
	Delete(ctx context.Context, f filter.Filter) (removed int, err error)
	Count(ctx context.Context) (int, error)
}
