package models

import (
	"github.com/google/uuid"
)

// ColumnType is the closed set of column types the inference engine can
// assign. Values match the type names stored in ingest_data_schemas.
type ColumnType string

const (
	ColumnTypeInteger  ColumnType = "INTEGER"
	ColumnTypeFloat    ColumnType = "FLOAT"
	ColumnTypeString   ColumnType = "STRING"
	ColumnTypeDateTime ColumnType = "DATETIME"
	ColumnTypeBoolean  ColumnType = "BOOLEAN"
)

// ValidColumnTypes contains all valid column type values.
var ValidColumnTypes = []ColumnType{
	ColumnTypeInteger,
	ColumnTypeFloat,
	ColumnTypeString,
	ColumnTypeDateTime,
	ColumnTypeBoolean,
}

// IsValidColumnType checks if the given type is valid.
func IsValidColumnType(t ColumnType) bool {
	for _, v := range ValidColumnTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the type participates in numeric statistics.
func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeInteger || t == ColumnTypeFloat
}

// SchemaColumn describes one column of a dataset's inferred schema,
// including the statistics computed during ingestion. The schema is fully
// replaced on re-ingestion, never merged.
type SchemaColumn struct {
	ID          uuid.UUID  `json:"id"`
	DatasetID   uuid.UUID  `json:"dataset_id"`
	ColumnName  string     `json:"column_name"`
	ColumnType  ColumnType `json:"column_type"`
	IsNullable  bool       `json:"is_nullable"`
	ColumnOrder int        `json:"column_order"`
	MinValue    *float64   `json:"min_value,omitempty"`
	MaxValue    *float64   `json:"max_value,omitempty"`
	MeanValue   *float64   `json:"mean_value,omitempty"`
	StdValue    *float64   `json:"std_value,omitempty"`
	UniqueCount *int64     `json:"unique_count,omitempty"`
	NullCount   *int64     `json:"null_count,omitempty"`
}
