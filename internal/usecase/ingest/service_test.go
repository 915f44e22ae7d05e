package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	docrepo "github.com/kailas-cloud/docapi/internal/repository/document"
)

func TestIngest_TwoRows(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	csv := header +
		"Acme,Widgets,b2b,Indústria\n" +
		"Beta,Pagamentos,fintech,Finanças\n"

	res, err := svc.Ingest(context.Background(), "startups.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message() != "Successfully uploaded startups.csv" {
		t.Errorf("unexpected message: %q", res.Message())
	}
	if res.Rows != 2 || res.Chunks != 2 {
		t.Errorf("expected 2 rows and 2 chunks, got %+v", res)
	}

	docs := allDocs(t, store)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	acme := docs[0]
	if name, _ := acme.MetaString("name"); name != "Acme" {
		t.Errorf("expected name Acme, got %q", name)
	}
	if !strings.HasPrefix(acme.Content(), "Widgets") ||
		!strings.HasSuffix(acme.Content(), "| Nome da startup: Acme") {
		t.Errorf("unexpected text: %q", acme.Content())
	}
	if acme.Content() != "Widgets b2b Indústria | Nome da startup: Acme" {
		t.Errorf("unexpected text: %q", acme.Content())
	}
	if acme.ContentType() != domdoc.ContentTypeText {
		t.Errorf("unexpected content type %q", acme.ContentType())
	}
}

func TestIngest_EmptyTagsKeepsDoubleSpace(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"Acme,Widgets,,Indústria\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs := allDocs(t, store)
	if len(docs) != 1 || docs[0].Content() != "Widgets  Indústria | Nome da startup: Acme" {
		t.Fatalf("unexpected documents: %v", docs)
	}
}

func TestIngest_MissingTitleAndShortRow(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+",Só descrição\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs := allDocs(t, store)
	if len(docs) != 1 {
		t.Fatalf("row must not be dropped, got %d docs", len(docs))
	}
	if name, ok := docs[0].MetaString("name"); !ok || name != "" {
		t.Errorf("expected empty name, got %q (present=%v)", name, ok)
	}
	if !strings.HasSuffix(docs[0].Content(), "| Nome da startup:") {
		t.Errorf("unexpected text: %q", docs[0].Content())
	}
}

func TestIngest_ReplacesPreviousContents(t *testing.T) {
	store := docrepo.NewMemory()
	old := make([]domdoc.Document, 0, 3)
	for _, c := range []string{"old one", "old two", "old three"} {
		d, _ := domdoc.New(c, map[string]any{"name": "old"})
		old = append(old, d)
	}
	_ = store.Write(context.Background(), old)
	svc, _ := newTestService(t, store, nil)

	csv := header + "A,a,t,c\nB,b,t,c\n"
	if _, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(csv)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := store.Count(context.Background()); n != 2 {
		t.Fatalf("expected 2 documents after ingest, got %d", n)
	}
}

func TestIngest_LongDescriptionIsChunked(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	sentence := strings.Repeat("palavra ", 59) + "fim."
	desc := sentence + " " + strings.ToUpper(sentence[:1]) + sentence[1:]
	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"Acme,\""+desc+"\",t,c\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs := allDocs(t, store)
	if len(docs) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(docs))
	}
	for i, d := range docs {
		if name, _ := d.MetaString("name"); name != "Acme" {
			t.Errorf("chunk %d lost its name", i)
		}
		if d.Meta()[domdoc.MetaSplitID] != i {
			t.Errorf("chunk %d has _split_id %v", i, d.Meta()[domdoc.MetaSplitID])
		}
	}
}

func TestIngest_RowOverContentCapIsChunked(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	var b strings.Builder
	for i := 0; b.Len() <= domdoc.MaxContentSize+20000; i++ {
		fmt.Fprintf(&b, "Produto %d faz foguetes reutilizáveis. ", i)
	}
	desc := strings.TrimSpace(b.String())

	res, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"Acme,\""+desc+"\",t,c\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs := allDocs(t, store)
	if len(docs) < 2 {
		t.Fatalf("expected several chunks, got %d", len(docs))
	}
	if res.Chunks != len(docs) {
		t.Errorf("result reports %d chunks, store holds %d", res.Chunks, len(docs))
	}
	for i, d := range docs {
		if name, _ := d.MetaString("name"); name != "Acme" {
			t.Errorf("chunk %d lost its name", i)
		}
		if len(d.Content()) > domdoc.MaxContentSize {
			t.Errorf("chunk %d is %d bytes", i, len(d.Content()))
		}
		if d.Meta()[domdoc.MetaSplitID] != i {
			t.Errorf("chunk %d has _split_id %v", i, d.Meta()[domdoc.MetaSplitID])
		}
	}
}

func TestIngest_IdenticalChunksShareID(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	sentence := strings.Repeat("palavra ", 59) + "fim."
	desc := sentence + " " + strings.ToUpper(sentence[:1]) + sentence[1:]
	csv := header +
		"Acme,\"" + desc + "\",t,c\n" +
		"Beta,\"" + desc + "\",t,c\n"

	res, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Chunks != 4 {
		t.Fatalf("expected 4 chunks produced, got %d", res.Chunks)
	}

	// The first chunk of both rows is the same text, so both map to one ID
	// and the later row's metadata wins.
	docs := allDocs(t, store)
	if len(docs) != 3 {
		t.Fatalf("expected 3 stored documents, got %d", len(docs))
	}
	shared := docs[0]
	if shared.Content() != sentence {
		t.Errorf("unexpected shared chunk %q", shared.Content())
	}
	if name, _ := shared.MetaString("name"); name != "Beta" {
		t.Errorf("expected last row to own the shared chunk, got %q", name)
	}
	for _, d := range docs {
		if d.ID() != domdoc.IDFor(d.Content()) {
			t.Errorf("ID of %q is not content derived", d.Content())
		}
	}
}

func TestIngest_BOMAndPaddedHeader(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, nil)

	csv := "\ufeff NOME DA STARTUP ,DESCRIÇÃO LONGA,TAGS,CATEGORIA,EXTRA\nAcme,Widgets,t,c,ignored\n"
	if _, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(csv)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs := allDocs(t, store)
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if name, _ := docs[0].MetaString("name"); name != "Acme" {
		t.Errorf("expected Acme, got %q", name)
	}
}

func TestIngest_MissingColumns(t *testing.T) {
	store := docrepo.NewMemory()
	d, _ := domdoc.New("existing", nil)
	_ = store.Write(context.Background(), []domdoc.Document{d})
	svc, _ := newTestService(t, store, nil)

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader("NOME DA STARTUP,TAGS\nAcme,t\n"))
	if !errors.Is(err, domain.ErrInvalidCSV) {
		t.Fatalf("expected ErrInvalidCSV, got %v", err)
	}
	var mc *domain.MissingColumnsError
	if !errors.As(err, &mc) || len(mc.Columns) != 2 {
		t.Fatalf("expected 2 missing columns, got %v", err)
	}
	// the reset happens before validation
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("expected store cleared, got %d docs", n)
	}
}

func TestIngest_EmptyFile(t *testing.T) {
	svc, _ := newTestService(t, docrepo.NewMemory(), nil)

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(""))
	if !errors.Is(err, domain.ErrInvalidCSV) {
		t.Fatalf("expected ErrInvalidCSV, got %v", err)
	}
}

func TestIngest_StagesUploadDurably(t *testing.T) {
	svc, dir := newTestService(t, docrepo.NewMemory(), nil)
	csv := header + "Acme,Widgets,t,c\n"

	res, err := svc.Ingest(context.Background(), "../../etc/startups.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(res.StagedPath) != dir {
		t.Fatalf("staged outside upload dir: %s", res.StagedPath)
	}
	base := filepath.Base(res.StagedPath)
	prefix, name, ok := strings.Cut(base, "_")
	if !ok || len(prefix) != 32 || name != "startups.csv" {
		t.Errorf("unexpected staged name %q", base)
	}
	data, err := os.ReadFile(res.StagedPath)
	if err != nil {
		t.Fatalf("staged file should remain: %v", err)
	}
	if string(data) != csv {
		t.Errorf("staged content differs")
	}
}

func TestIngest_WithEmbedder(t *testing.T) {
	store := docrepo.NewMemory()
	emb := &stubEmbedder{dim: 4}
	svc, _ := newTestService(t, store, emb)

	if _, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"A,a,t,c\nB,b,t,c\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 2 {
		t.Errorf("expected 2 embed calls, got %d", emb.calls)
	}
	for _, d := range allDocs(t, store) {
		if len(d.Embedding()) != 4 {
			t.Errorf("expected stored embedding, got %v", d.Embedding())
		}
	}
}

func TestIngest_EmbedderError(t *testing.T) {
	store := docrepo.NewMemory()
	svc, _ := newTestService(t, store, &stubEmbedder{err: errProvider})

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"A,a,t,c\n"))
	if !errors.Is(err, errProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("nothing should be written, got %d", n)
	}
}

func TestIngest_DeleteErrorStops(t *testing.T) {
	fs := &failingStore{deleteErr: errors.New("store down")}
	svc, dir := newTestService(t, fs, nil)

	if _, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header)); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("nothing should be staged after a failed reset, got %d files", len(entries))
	}
}

func TestIngest_WriteError(t *testing.T) {
	fs := &failingStore{writeErr: errors.New("store down")}
	svc, _ := newTestService(t, fs, nil)

	_, err := svc.Ingest(context.Background(), "s.csv", strings.NewReader(header+"A,a,t,c\n"))
	if err == nil || !strings.Contains(err.Error(), "write documents") {
		t.Fatalf("expected write error, got %v", err)
	}
	if fs.deletes != 1 {
		t.Errorf("expected one reset, got %d", fs.deletes)
	}
}
