package infer

import (
	"strings"

	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/sniff"
)

// ColumnTypes infers a type for every column of t, in column order.
// Only aligned rows contribute values; ragged rows are excluded the same
// way the materializer excludes them.
func ColumnTypes(t *sniff.Table) map[string]models.ColumnType {
	types := make(map[string]models.ColumnType, len(t.Columns))
	for _, name := range t.Columns {
		types[name] = ColumnType(t.ColumnValues(name))
	}
	return types
}

// ColumnType classifies one column from its raw cells. The priority order
// is fixed: integer, float, datetime, boolean, then string as the
// catch-all. A column with no non-null values is a string column.
//
// An integer-valued column that contains nulls is classified FLOAT, not
// INTEGER: the null must survive materialization as an explicit null, and
// a nullable numeric column is a float column.
func ColumnType(values []*string) models.ColumnType {
	nonNull := nonNullValues(values)
	if len(nonNull) == 0 {
		return models.ColumnTypeString
	}
	hasNulls := len(nonNull) < len(values)

	if allMatch(nonNull, isInt) {
		if hasNulls {
			return models.ColumnTypeFloat
		}
		return models.ColumnTypeInteger
	}
	if allMatch(nonNull, isFloat) {
		return models.ColumnTypeFloat
	}
	if allMatch(nonNull, isDateTime) {
		return models.ColumnTypeDateTime
	}
	if isBoolSet(nonNull) {
		return models.ColumnTypeBoolean
	}
	return models.ColumnTypeString
}

// Nullable reports whether the column contains at least one null cell.
func Nullable(values []*string) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}

func nonNullValues(values []*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func allMatch(values []string, match func(string) bool) bool {
	for _, v := range values {
		if !match(v) {
			return false
		}
	}
	return true
}

func isInt(s string) bool {
	_, ok := ParseInt(s)
	return ok
}

func isFloat(s string) bool {
	_, ok := ParseFloat(s)
	return ok
}

func isDateTime(s string) bool {
	_, ok := ParseDateTime(s)
	return ok
}

// isBoolSet reports whether every value, lower-cased, falls inside the
// recognized boolean set. Unlike the numeric probes the values are not
// trimmed: a padded cell is not a boolean.
func isBoolSet(values []string) bool {
	for _, v := range values {
		switch strings.ToLower(v) {
		case "true", "false", "1", "0", "yes", "no":
		default:
			return false
		}
	}
	return true
}
