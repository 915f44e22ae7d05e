package document

import (
	"encoding/json"
	"fmt"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// jsonDoc is the RedisJSON layout of a stored document.
// Tags carries stringified copies of the indexed meta fields, since a TAG index
// skips documents whose value at the path is not a string.
type jsonDoc struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type"`
	Meta        map[string]any    `json:"meta"`
	Embedding   []float32         `json:"embedding,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

func buildJSONDoc(doc *domdoc.Document, indexed []string) jsonDoc {
	jd := jsonDoc{
		ID:          doc.ID(),
		Content:     doc.Content(),
		ContentType: doc.ContentType(),
		Meta:        doc.Meta(),
		Embedding:   doc.Embedding(),
	}
	if jd.Meta == nil {
		jd.Meta = map[string]any{}
	}
	for _, field := range indexed {
		v, ok := doc.MetaString(field)
		if !ok {
			continue
		}
		if jd.Tags == nil {
			jd.Tags = make(map[string]string, len(indexed))
		}
		jd.Tags[field] = v
	}
	return jd
}

// parseJSONDoc decodes a stored document. FT.SEARCH RETURN $ yields the bare object,
// JSON.GET with a $ path yields a one-element array; both are accepted.
func parseJSONDoc(raw string) (domdoc.Document, error) {
	var jd jsonDoc
	if len(raw) > 0 && raw[0] == '[' {
		var arr []jsonDoc
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
		}
		if len(arr) == 0 {
			return domdoc.Document{}, fmt.Errorf("unmarshal document: empty result")
		}
		jd = arr[0]
	} else if err := json.Unmarshal([]byte(raw), &jd); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}

	contentType := jd.ContentType
	if contentType == "" {
		contentType = domdoc.ContentTypeText
	}
	return domdoc.Reconstruct(jd.ID, jd.Content, contentType, jd.Meta, jd.Embedding), nil
}
