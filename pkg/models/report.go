package models

import (
	"time"

	"github.com/google/uuid"
)

// ColumnQuality is the per-column slice of a quality report.
type ColumnQuality struct {
	CompletenessPercentage float64 `json:"completeness_percentage"`
	NullCount              int64   `json:"null_count"`
	UniqueValues           int64   `json:"unique_values"`
	DataType               string  `json:"data_type"`
}

// QualityDetails is the structured detail payload of a quality report.
type QualityDetails struct {
	ColumnQuality map[string]ColumnQuality `json:"column_quality"`
}

// QualityReport is a snapshot summary of completeness, validity and
// duplication for one ingestion run. Immutable once created; the next run
// for the same dataset supersedes it.
type QualityReport struct {
	ID               uuid.UUID      `json:"id"`
	DatasetID        uuid.UUID      `json:"dataset_id"`
	TotalRecords     int64          `json:"total_records"`
	ValidRecords     int64          `json:"valid_records"`
	InvalidRecords   int64          `json:"invalid_records"`
	DuplicateRecords int64          `json:"duplicate_records"`
	Details          QualityDetails `json:"details"`
	ReportDate       time.Time      `json:"report_date"`
}

// QualityScore is valid_records over total_records as a percentage.
// An empty dataset scores 0.
func (r *QualityReport) QualityScore() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.ValidRecords) / float64(r.TotalRecords) * 100
}
