package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docapi/internal/domain"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// ContentTypeText is the only content type produced by this service.
const ContentTypeText = "text"

// MetaName is the metadata key carrying the document's display name.
const MetaName = "name"

// MetaSplitID is the metadata key carrying the chunk position within its source document.
const MetaSplitID = "_split_id"

// idNamespace seeds the name-based UUIDs used as content-derived document IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://kailas.cloud/docapi/documents"))

// Document is the document aggregate (immutable value object).
type Document struct {
	id          string
	content     string
	contentType string
	meta        map[string]any
	embedding   []float32
}

// New validates and creates a text Document. The ID is derived from the content,
// so identical chunks collapse onto the same stored document.
func New(content string, meta map[string]any) (Document, error) {
	if content == "" {
		return Document{}, fmt.Errorf("content is required: %w", domain.ErrInvalidDocument)
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes): %w", MaxContentSize, domain.ErrInvalidDocument)
	}

	return Document{
		id:          IDFor(content),
		content:     content,
		contentType: ContentTypeText,
		meta:        cloneMeta(meta),
	}, nil
}

// NewSource creates an unsegmented source Document. Only emptiness is checked:
// the size cap applies to the chunks a splitter derives from it.
func NewSource(content string, meta map[string]any) (Document, error) {
	if content == "" {
		return Document{}, fmt.Errorf("content is required: %w", domain.ErrInvalidDocument)
	}
	return Document{
		id:          IDFor(content),
		content:     content,
		contentType: ContentTypeText,
		meta:        cloneMeta(meta),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, content, contentType string, meta map[string]any, embedding []float32) Document {
	return Document{id: id, content: content, contentType: contentType, meta: meta, embedding: embedding}
}

// IDFor returns the content-derived document ID.
func IDFor(content string) string {
	return uuid.NewSHA1(idNamespace, []byte(content)).String()
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// ContentType returns the content type.
func (d *Document) ContentType() string { return d.contentType }

// Meta returns the metadata fields.
func (d *Document) Meta() map[string]any { return d.meta }

// Embedding returns the embedding vector, nil when absent.
func (d *Document) Embedding() []float32 { return d.embedding }

// MetaString returns the metadata value for key rendered as a string.
func (d *Document) MetaString(key string) (string, bool) {
	v, ok := d.meta[key]
	if !ok || v == nil {
		return "", false
	}
	return StringifyMeta(v), true
}

// WithEmbedding returns a copy with the given embedding set.
func (d *Document) WithEmbedding(v []float32) Document {
	return Document{id: d.id, content: d.content, contentType: d.contentType, meta: d.meta, embedding: v}
}

// WithoutEmbedding returns a copy with the embedding cleared.
func (d *Document) WithoutEmbedding() Document {
	return d.WithEmbedding(nil)
}

// StringifyMeta renders a metadata value the way filters compare it.
// JSON decoding turns integers into float64, so whole floats print without a fraction.
func StringifyMeta(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
