package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// ReadRows parses CSV data into header-keyed rows.
// The first record is the header. Blank lines are skipped, quoting is
// lenient, and records with too few or too many fields are kept: missing
// cells read as empty and extra cells are ignored. Rows whose cells are all
// blank are dropped.
func ReadRows(r io.Reader) ([]timeline.Row, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		// Spreadsheet exports often lead with a UTF-8 BOM.
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	var rows []timeline.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("parsing CSV line %d: %w", perr.Line, err)
			}
			return nil, fmt.Errorf("parsing CSV: %w", err)
		}

		row := make(timeline.Row, len(headers))
		filled := false
		for j, val := range record {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			val = strings.TrimSpace(val)
			if val != "" {
				filled = true
			}
			// duplicated headers keep the first non-empty cell
			if row[headers[j]] == "" {
				row[headers[j]] = val
			}
		}
		if !filled {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseRows is ReadRows over an in-memory payload.
func ParseRows(data []byte) ([]timeline.Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptySource
	}
	return ReadRows(bytes.NewReader(data))
}
