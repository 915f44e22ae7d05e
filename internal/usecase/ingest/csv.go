package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// Source columns of the startup table.
const (
	ColumnDescription = "DESCRIÇÃO LONGA"
	ColumnTags        = "TAGS"
	ColumnCategory    = "CATEGORIA"
	ColumnTitle       = "NOME DA STARTUP"
)

var requiredColumns = []string{ColumnDescription, ColumnTags, ColumnCategory, ColumnTitle}

// row is one startup record with missing cells coerced to "".
type row struct {
	description string
	tags        string
	category    string
	title       string
}

// text renders the row the way it is indexed:
// "<description> <tags> <category> | Nome da startup: <title>".
func (r row) text() string {
	return r.description + " " + r.tags + " " + r.category + " | Nome da startup: " + r.title
}

// document builds the unsplit source document; chunk size limits are enforced after splitting.
func (r row) document() (domdoc.Document, error) {
	return domdoc.NewSource(r.text(), map[string]any{domdoc.MetaName: r.title})
}

// readRows parses a startup CSV. The header must name all four source columns;
// extra columns are ignored and short rows are padded with empty cells.
func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: %w", domain.ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w: %w", domain.ErrInvalidCSV, err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingColumns(missing)
	}

	cell := func(rec []string, col string) string {
		i := pos[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w: %w", len(rows)+1, domain.ErrInvalidCSV, err)
		}
		rows = append(rows, row{
			description: cell(rec, ColumnDescription),
			tags:        cell(rec, ColumnTags),
			category:    cell(rec, ColumnCategory),
			title:       cell(rec, ColumnTitle),
		})
	}
}
