package domain

import "errors"

var (
	// ErrInvalidFilter signals a malformed filter specification.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidCSV signals an uploaded file that is not a usable startup table.
	ErrInvalidCSV = errors.New("invalid csv")
	// ErrInvalidDocument signals a document that fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// MissingColumnsError wraps ErrInvalidCSV with the header names that were not found.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	msg := ErrInvalidCSV.Error() + ": missing columns"
	for i, c := range e.Columns {
		if i == 0 {
			msg += " "
		} else {
			msg += ", "
		}
		msg += "\"" + c + "\""
	}
	return msg
}

func (e *MissingColumnsError) Unwrap() error { return ErrInvalidCSV }

// NewMissingColumns creates a missing columns error.
func NewMissingColumns(columns []string) error {
	return &MissingColumnsError{Columns: columns}
}
