package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
	"github.com/kailas-cloud/docapi/internal/metrics"
)

// Result summarizes one ingestion.
type Result struct {
	Filename   string
	StagedPath string
	Rows       int
	Chunks     int
}

// Message is the confirmation returned to clients.
func (r Result) Message() string {
	return "Successfully uploaded " + r.Filename
}

// Service replaces the store contents with the documents of an uploaded startup CSV.
type Service struct {
	store    Store
	splitter Splitter
	stager   *Stager
	embedder domain.Embedder // optional
	logger   *zap.Logger
}

// New creates an ingest service. A nil embedder stores chunks without vectors.
func New(store Store, splitter Splitter, stager *Stager, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{store: store, splitter: splitter, stager: stager, embedder: embedder, logger: logger}
}

// Ingest clears the store, stages the upload, and writes one or more chunks per CSV row.
// The store is cleared before the upload is validated, so a rejected file still empties it.
func (s *Service) Ingest(ctx context.Context, filename string, r io.Reader) (res Result, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.IngestRunsTotal.WithLabelValues(status).Inc()
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	res.Filename = filename

	removed, err := s.store.Delete(ctx, filter.Filter{})
	if err != nil {
		return res, fmt.Errorf("clear store: %w", err)
	}

	res.StagedPath, err = s.stager.Stage(filename, r)
	if err != nil {
		return res, fmt.Errorf("stage upload: %w", err)
	}

	rows, err := readStaged(res.StagedPath)
	if err != nil {
		return res, err
	}
	res.Rows = len(rows)

	docs := make([]domdoc.Document, 0, len(rows))
	for i, rec := range rows {
		doc, err := rec.document()
		if err != nil {
			return res, fmt.Errorf("row %d: %w: %w", i+1, domain.ErrInvalidCSV, err)
		}
		docs = append(docs, doc)
	}

	chunks, err := s.splitter.Process(ctx, docs)
	if err != nil {
		return res, fmt.Errorf("preprocess: %w", err)
	}

	if s.embedder != nil {
		chunks, err = s.embed(ctx, chunks)
		if err != nil {
			return res, err
		}
	}

	if err := s.store.Write(ctx, chunks); err != nil {
		return res, fmt.Errorf("write documents: %w", err)
	}
	res.Chunks = len(chunks)

	metrics.IngestRowsTotal.Add(float64(res.Rows))
	metrics.IngestChunksTotal.Add(float64(res.Chunks))

	s.logger.Info("CSV ingested",
		zap.String("filename", filename),
		zap.String("staged_path", res.StagedPath),
		zap.Int("removed", removed),
		zap.Int("rows", res.Rows),
		zap.Int("chunks", res.Chunks),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *Service) embed(ctx context.Context, chunks []domdoc.Document) ([]domdoc.Document, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content()
	}

	vectors, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	out := make([]domdoc.Document, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].WithEmbedding(vectors.Embeddings[i])
	}
	return out, nil
}

func readStaged(path string) (rows []row, err error) {
	f, err := os.Open(path) //nolint:gosec // path is built by Stager inside the upload dir
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close staged file: %w", cerr)
		}
	}()

	return readRows(f)
}
