package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is one materialized row of a dataset. Data holds the canonical
// value mapping (column name -> plain value, nulls explicit); DataHash is
// the SHA-256 hex digest of the canonical JSON serialization of that
// mapping with keys sorted, used for duplicate detection.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	DatasetID  uuid.UUID      `json:"dataset_id"`
	RowNumber  int64          `json:"row_number"`
	Data       map[string]any `json:"data"`
	DataHash   string         `json:"data_hash"`
	ImportedAt time.Time      `json:"imported_at"`
}

// Filter operators for record queries.
const (
	FilterOpEq       = "eq"
	FilterOpContains = "contains"
	FilterOpGte      = "gte"
	FilterOpLte      = "lte"
)

// ValidFilterOps contains all valid record filter operators.
var ValidFilterOps = []string{
	FilterOpEq,
	FilterOpContains,
	FilterOpGte,
	FilterOpLte,
}

// IsValidFilterOp checks if the given operator is valid.
func IsValidFilterOp(op string) bool {
	for _, v := range ValidFilterOps {
		if v == op {
			return true
		}
	}
	return false
}

// RecordFilter is one column condition applied to record queries.
// Contains matches case-insensitively on the string form; Gte/Lte compare
// numerically and never match null or non-numeric values.
type RecordFilter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

// RecordQuery selects a page of records with optional filters applied
// before pagination. Page is 1-based.
type RecordQuery struct {
	Filters []RecordFilter
	Page    int
	PerPage int
}

// RecordPage is one page of record data.
type RecordPage struct {
	Data         []map[string]any `json:"data"`
	TotalRecords int64            `json:"total_records"`
	Page         int              `json:"page"`
	PerPage      int              `json:"per_page"`
	HasNext      bool             `json:"has_next"`
}
