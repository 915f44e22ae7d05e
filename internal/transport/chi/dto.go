package chi

import (
	"bytes"
	"encoding/json"
	"fmt"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeInvalidCSV             ErrorCode = "invalid_csv"
	ErrorCodePayloadTooLarge        ErrorCode = "payload_too_large"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FilterRequest is the body of get_by_filters and delete_by_filters.
type FilterRequest struct {
	Filters map[string]FilterValues `json:"filters" validate:"max=32,dive,keys,required,max=256,endkeys,max=1024"`
}

// FilterValues is the list of allowed values for one field. A bare scalar
// decodes as a one-element list; numbers and booleans are stringified the way
// stored metadata is compared.
type FilterValues []string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FilterValues) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = FilterValues{}
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("filter values: %w", err)
	}

	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}

	out := make(FilterValues, 0, len(list))
	for _, item := range list {
		switch item.(type) {
		case string, float64, bool:
			out = append(out, domdoc.StringifyMeta(item))
		default:
			return fmt.Errorf("filter values must be strings, numbers or booleans, got %s", string(data))
		}
	}
	*v = out
	return nil
}

// DocumentResponse is the wire form of a stored document.
type DocumentResponse struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	ContentType string         `json:"content_type"`
	Meta        map[string]any `json:"meta"`
	Score       *float64       `json:"score"`
	Embedding   []float32      `json:"embedding"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents *int              `json:"documents,omitempty"`
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	meta := doc.Meta()
	if meta == nil {
		meta = map[string]any{}
	}
	return DocumentResponse{
		ID:          doc.ID(),
		Content:     doc.Content(),
		ContentType: doc.ContentType(),
		Meta:        meta,
		Embedding:   doc.Embedding(),
	}
}

func filterFields(req FilterRequest) map[string][]string {
	if len(req.Filters) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(req.Filters))
	for k, v := range req.Filters {
		fields[k] = []string(v)
	}
	return fields
}
