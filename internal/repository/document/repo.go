package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/docapi/internal/db"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// DefaultPageSize is the FT.SEARCH page size used when Config.PageSize is unset.
const DefaultPageSize = 500

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	Del(ctx context.Context, keys ...string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchKeys(ctx context.Context, index, query string, offset, limit int) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config controls key layout and which meta fields are indexed for filtering.
type Config struct {
	KeyPrefix        string
	FilterableFields []string
	PageSize         int
}

// Repo is the Redis-backed document store: RedisJSON documents plus one
// RediSearch index with a TAG field per filterable meta field.
type Repo struct {
	store    store
	prefix   string
	indexed  []string
	pageSize int
}

// New creates a document repository. The name meta field is always indexed.
func New(s store, cfg Config) *Repo {
	indexed := []string{domdoc.MetaName}
	for _, f := range cfg.FilterableFields {
		if !slices.Contains(indexed, f) {
			indexed = append(indexed, f)
		}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Repo{store: s, prefix: cfg.KeyPrefix, indexed: indexed, pageSize: pageSize}
}

// EnsureIndex creates the filter index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageJSON,
		Prefixes:    []string{r.docPrefix()},
		Fields:      make([]db.IndexField, 0, len(r.indexed)),
	}
	for _, f := range r.indexed {
		def.Fields = append(def.Fields, db.IndexField{
			Name:             "$.tags." + f,
			Alias:            f,
			Type:             db.IndexFieldTag,
			TagSeparator:     tagSeparator,
			TagCaseSensitive: true,
		})
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// GetAll returns every document matching f in index order.
func (r *Repo) GetAll(ctx context.Context, f filter.Filter) ([]domdoc.Document, error) {
	query, ok := r.plan(f)
	if !ok {
		return []domdoc.Document{}, nil
	}

	docs := make([]domdoc.Document, 0)
	err := r.scan(ctx, query, func(_ string, doc domdoc.Document) {
		if f.Matches(&doc) {
			docs = append(docs, doc)
		}
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes every document matching f and returns how many were removed.
// Matching keys are collected before any DEL so paging is not disturbed.
func (r *Repo) Delete(ctx context.Context, f filter.Filter) (int, error) {
	query, ok := r.plan(f)
	if !ok {
		return 0, nil
	}

	var keys []string
	var err error
	if f.IsEmpty() {
		keys, err = r.allKeys(ctx)
	} else {
		err = r.scan(ctx, query, func(key string, doc domdoc.Document) {
			if f.Matches(&doc) {
				keys = append(keys, key)
			}
		})
	}
	if err != nil {
		return 0, err
	}

	var removed int64
	for batch := range slices.Chunk(keys, r.pageSize) {
		n, err := r.store.Del(ctx, batch...)
		removed += n
		if err != nil {
			return int(removed), fmt.Errorf("delete documents: %w", err)
		}
	}
	return int(removed), nil
}

// Write stores docs, overwriting any document with the same ID.
func (r *Repo) Write(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.JSONSetItem, 0, len(docs))
	for i := range docs {
		data, err := json.Marshal(buildJSONDoc(&docs[i], r.indexed))
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", docs[i].ID(), err)
		}
		items = append(items, db.JSONSetItem{Key: r.docKey(docs[i].ID()), Path: "$", Data: data})
	}

	for batch := range slices.Chunk(items, r.pageSize) {
		if err := r.store.JSONSetMulti(ctx, batch); err != nil {
			return fmt.Errorf("write documents: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// plan turns f into an FT.SEARCH query over the indexed fields it can serve.
// ok is false when f can match nothing.
func (r *Repo) plan(f filter.Filter) (query string, ok bool) {
	for _, field := range f.Fields() {
		if len(f.Values(field)) == 0 {
			return "", false
		}
	}

	pushdown, _ := f.Split(func(field string) bool {
		if !slices.Contains(r.indexed, field) {
			return false
		}
		for _, v := range f.Values(field) {
			if !tagSafe(v) {
				return false
			}
		}
		return true
	})
	return buildQuery(pushdown), true
}

// scan pages through every document matching query and hands each to fn.
func (r *Repo) scan(ctx context.Context, query string, fn func(key string, doc domdoc.Document)) error {
	for offset := 0; ; offset += r.pageSize {
		result, err := r.store.SearchList(ctx, r.indexName(), query, offset, r.pageSize, []string{"$"})
		if err != nil {
			return fmt.Errorf("search documents: %w", err)
		}
		if result == nil || len(result.Entries) == 0 {
			return nil
		}
		for _, entry := range result.Entries {
			raw := entry.Fields["$"]
			if raw == "" {
				continue
			}
			doc, err := parseJSONDoc(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", entry.Key, err)
			}
			fn(entry.Key, doc)
		}
		if offset+len(result.Entries) >= result.Total {
			return nil
		}
	}
}

func (r *Repo) allKeys(ctx context.Context) ([]string, error) {
	var keys []string
	for offset := 0; ; offset += r.pageSize {
		result, err := r.store.SearchKeys(ctx, r.indexName(), "*", offset, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("search keys: %w", err)
		}
		if result == nil || len(result.Entries) == 0 {
			return keys, nil
		}
		for _, entry := range result.Entries {
			keys = append(keys, entry.Key)
		}
		if offset+len(result.Entries) >= result.Total {
			return keys, nil
		}
	}
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) docPrefix() string {
	return r.prefix + "doc:"
}

func (r *Repo) indexName() string {
	return r.prefix + "idx"
}
