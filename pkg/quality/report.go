// Package quality builds the per-ingestion data quality report from the
// counters and column profiles the pipeline has already computed.
package quality

import (
	"github.com/google/uuid"

	"github.com/rlake-data/ingest-engine/pkg/infer"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// Counts are the row-level counters from materialization.
type Counts struct {
	TotalRows     int64
	ErrorRows     int64
	DuplicateRows int64
}

// BuildReport aggregates the column stats into a quality report. Valid
// records are total minus error rows; duplicates are reported separately
// and do not reduce the valid count. Column completeness is the
// complement of the null percentage.
func BuildReport(datasetID uuid.UUID, counts Counts, columns []string, types map[string]models.ColumnType, stats map[string]infer.ColumnStats) models.QualityReport {
	details := models.QualityDetails{
		ColumnQuality: make(map[string]models.ColumnQuality, len(columns)),
	}
	for _, name := range columns {
		s := stats[name]
		details.ColumnQuality[name] = models.ColumnQuality{
			CompletenessPercentage: 100 - s.NullPercentage,
			NullCount:              s.NullCount,
			UniqueValues:           s.UniqueCount,
			DataType:               string(types[name]),
		}
	}

	return models.QualityReport{
		DatasetID:        datasetID,
		TotalRecords:     counts.TotalRows,
		ValidRecords:     counts.TotalRows - counts.ErrorRows,
		InvalidRecords:   counts.ErrorRows,
		DuplicateRecords: counts.DuplicateRows,
		Details:          details,
	}
}
