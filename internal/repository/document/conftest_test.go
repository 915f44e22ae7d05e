package document

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/docapi/internal/db"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetMultiFn func(ctx context.Context, items []db.JSONSetItem) error
	delFn          func(ctx context.Context, keys ...string) (int64, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	searchListFn   func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
	searchKeysFn  func(ctx context.Context, index, query string, offset, limit int) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if m.jsonSetMultiFn != nil {
		return m.jsonSetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKeys(
	ctx context.Context, index, query string, offset, limit int,
) (*db.SearchResult, error) {
	if m.searchKeysFn != nil {
		return m.searchKeysFn(ctx, index, query, offset, limit)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{KeyPrefix: "docapi:", FilterableFields: []string{"category"}, PageSize: 2})
	return repo, ms
}

func testDocument(t *testing.T, content, name string) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(content, map[string]any{domdoc.MetaName: name, domdoc.MetaSplitID: 0})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

// storedEntry renders doc the way FT.SEARCH RETURN $ hands it back.
func storedEntry(t *testing.T, r *Repo, doc domdoc.Document) db.SearchEntry {
	t.Helper()
	data, err := json.Marshal(buildJSONDoc(&doc, r.indexed))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return db.SearchEntry{Key: r.docKey(doc.ID()), Fields: map[string]string{"$": string(data)}}
}
