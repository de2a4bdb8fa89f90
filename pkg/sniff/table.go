package sniff

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
)

// Table is the raw string form of a parsed file: normalized header names
// plus every physical data row in file order. A nil cell is a null (an
// empty CSV cell). Rows keep their original field count; rows whose count
// differs from the header are malformed and are counted as row errors
// downstream instead of aborting the parse.
type Table struct {
	Columns []string
	Rows    [][]*string
}

// IsAligned reports whether row i has exactly one cell per column.
func (t *Table) IsAligned(i int) bool {
	return len(t.Rows[i]) == len(t.Columns)
}

// ColumnValues returns the cells of the named column from aligned rows,
// in row order. Unknown columns return nil.
func (t *Table) ColumnValues(name string) []*string {
	idx := -1
	for i, col := range t.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	values := make([]*string, 0, len(t.Rows))
	for i := range t.Rows {
		if !t.IsAligned(i) {
			continue
		}
		values = append(values, t.Rows[i][idx])
	}
	return values
}

// ReadTable parses decoded UTF-8 text into a Table using the given
// delimiter. Quoting is lenient and rows may have any field count; the
// reader never aborts on a malformed line. Input with no parseable header
// line at all is an empty-file error.
func ReadTable(text []byte, delimiter string) (*Table, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = []rune(delimiter)[0]
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperrors.ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header line: %w", err)
	}
	if len(header) == 0 {
		return nil, apperrors.ErrNoColumns
	}

	table := &Table{Columns: normalizeHeader(header)}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A line the reader could not parse still occupies a row
			// position; keep it as a malformed row and move on.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				table.Rows = append(table.Rows, nil)
				continue
			}
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Rows)+1, err)
		}

		row := make([]*string, len(record))
		for i, cell := range record {
			if cell == "" {
				continue // empty cell is null
			}
			c := cell
			row[i] = &c
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// normalizeHeader gives every column a unique, non-empty name. Empty
// header cells are named by position ("Unnamed: i"); repeated names get
// ".1", ".2", … suffixes with the first occurrence keeping the bare name.
func normalizeHeader(fields []string) []string {
	columns := make([]string, len(fields))
	counts := make(map[string]int, len(fields))
	taken := make(map[string]bool, len(fields))

	for i, name := range fields {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		unique := name
		for suffix := counts[name]; taken[unique]; suffix++ {
			unique = fmt.Sprintf("%s.%d", name, suffix)
		}
		counts[name]++
		taken[unique] = true
		columns[i] = unique
	}
	return columns
}
