package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docapi/internal/config"
	dbRedis "github.com/kailas-cloud/docapi/internal/db/redis"
	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
	logpkg "github.com/kailas-cloud/docapi/internal/logger"
	"github.com/kailas-cloud/docapi/internal/metrics"
	"github.com/kailas-cloud/docapi/internal/preprocess"
	documentrepo "github.com/kailas-cloud/docapi/internal/repository/document"
	openaiEmb "github.com/kailas-cloud/docapi/internal/transport/openai"
	documentuc "github.com/kailas-cloud/docapi/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docapi/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docapi/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docapi/internal/usecase/ingest"
)

// documentStore is what every document store driver provides.
type documentStore interface {
	GetAll(ctx context.Context, f filter.Filter) ([]domdoc.Document, error)
	Delete(ctx context.Context, f filter.Filter) (int, error)
	Write(ctx context.Context, docs []domdoc.Document) error
	Count(ctx context.Context) (int, error)
}

// app is the wired service graph shared by serve and the offline commands.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	documents *documentuc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp loads config for env and builds the composition root.
func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	docs, pinger, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		a.Close()
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	pp, err := preprocess.New(preprocess.Config{
		CleanWhitespace:         *cfg.Preprocess.CleanWhitespace,
		CleanEmptyLines:         *cfg.Preprocess.CleanEmptyLines,
		SplitLength:             cfg.Preprocess.SplitLength,
		SplitOverlap:            cfg.Preprocess.SplitOverlap,
		RespectSentenceBoundary: *cfg.Preprocess.RespectSentenceBoundary,
		Language:                cfg.Preprocess.Language,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create preprocessor: %w", err)
	}

	// Pass nil interfaces (not typed nil pointers) when embeddings are off.
	var embedder domain.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled() {
		instrumented := buildEmbedder(cfg.Embedding, logger)
		embeddingChecker = instrumented
		embedder = instrumented
		if cfg.Embedding.Instruction != "" {
			embedder = domain.NewInstructionEmbedder(instrumented, cfg.Embedding.Instruction)
		}
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.Int("batch_size", cfg.Embedding.BatchSize),
		)
	}

	a.documents = documentuc.New(docs)
	a.ingest = ingestuc.New(docs, pp, ingestuc.NewStager(cfg.Upload.Dir), embedder, logger)
	a.health = healthuc.New(pinger, docs, embeddingChecker).WithUploadDir(cfg.Upload.Dir)

	return a, nil
}

// warnEphemeralStore tells an offline command that its changes die with the process.
func (a *app) warnEphemeralStore(w io.Writer) {
	if a.cfg.Database.Driver != config.DriverMemory {
		return
	}
	fmt.Fprintf(w, "warning: database.driver is %q; changes are lost when this command exits\n", config.DriverMemory)
}

// openStore connects the configured driver. The returned pinger is nil for the memory driver.
func (a *app) openStore(ctx context.Context) (documentStore, healthuc.StorePinger, error) {
	cfg := a.cfg

	switch cfg.Database.Driver {
	case config.DriverMemory:
		a.logger.Warn("Using in-memory document store, data is lost on exit")
		return documentrepo.NewMemory(), nil, nil
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create database store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		// Wait for database to be ready
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		a.logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

		repo := documentrepo.New(store, documentrepo.Config{
			KeyPrefix:        cfg.Storage.KeyPrefix,
			FilterableFields: cfg.Storage.FilterableFields,
			PageSize:         cfg.Storage.PageSize,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure index: %w", err)
		}
		return repo, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	return embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, cfg.BatchSize, logger)
}
