// Package materialize turns a parsed table and its inferred schema into
// typed row payloads with content hashes. Rows that cannot be mapped onto
// the header are counted and skipped; duplicates are detected by hash but
// still materialized.
package materialize

import (
	"fmt"

	"github.com/rlake-data/ingest-engine/pkg/infer"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/sniff"
)

// Row is one materialized data row. RowNumber is the 1-based position in
// the source file; skipped rows consume a number, so numbers stay aligned
// with the file even when rows are dropped.
type Row struct {
	RowNumber   int64
	Data        map[string]models.Value
	Hash        string
	IsDuplicate bool
}

// SkippedRow records a row that could not be materialized.
type SkippedRow struct {
	RowNumber int64
	Reason    string
}

// Result carries the materialized rows plus the counters the quality
// report is built from. TotalRows covers every source row, ErrorRows the
// skipped ones, and DuplicateRows the materialized rows whose hash had
// already been seen.
type Result struct {
	Rows          []Row
	Skipped       []SkippedRow
	TotalRows     int64
	ErrorRows     int64
	DuplicateRows int64
}

// Rows materializes every row of t under the given column types. The
// first row with a given hash is not a duplicate; later identical rows
// are flagged and counted but kept.
func Rows(t *sniff.Table, types map[string]models.ColumnType) Result {
	result := Result{
		Rows:      make([]Row, 0, len(t.Rows)),
		TotalRows: int64(len(t.Rows)),
	}
	seen := make(map[string]struct{}, len(t.Rows))

	for i, cells := range t.Rows {
		rowNumber := int64(i) + 1
		if !t.IsAligned(i) {
			result.Skipped = append(result.Skipped, SkippedRow{
				RowNumber: rowNumber,
				Reason:    fmt.Sprintf("row has %d fields, header has %d", len(cells), len(t.Columns)),
			})
			continue
		}

		data := make(map[string]models.Value, len(t.Columns))
		for j, name := range t.Columns {
			data[name] = infer.Coerce(cells[j], types[name])
		}

		hash, err := HashRow(data)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				RowNumber: rowNumber,
				Reason:    err.Error(),
			})
			continue
		}

		_, duplicate := seen[hash]
		if duplicate {
			result.DuplicateRows++
		} else {
			seen[hash] = struct{}{}
		}
		result.Rows = append(result.Rows, Row{
			RowNumber:   rowNumber,
			Data:        data,
			Hash:        hash,
			IsDuplicate: duplicate,
		})
	}

	result.ErrorRows = int64(len(result.Skipped))
	return result
}
