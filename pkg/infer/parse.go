// Package infer assigns a column type to each column of a parsed table
// and computes per-column statistics. Type probing is a chain of explicit
// fallible parses in strict priority order; coercion runs through a static
// table keyed by the closed column type enumeration.
package infer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rlake-data/ingest-engine/pkg/models"
)

// dateTimeLayouts are tried in order by ParseDateTime. Timestamp forms
// come first so date-only layouts cannot shadow them; Go accepts a
// fractional second after the seconds field without a layout for it.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"01/02/2006 15:04:05", // MDY
	"02/01/2006 15:04:05", // DMY
	"2006-01-02",
	"2006/01/02",
	"01/02/2006", // MDY
	"02/01/2006", // DMY
	"01.02.2006",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"20060102",
}

// ParseInt reports whether s is a signed base-10 integer fitting in int64.
func ParseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

// ParseFloat reports whether s parses as a 64-bit float, decimal or
// scientific notation.
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// ParseBool maps the recognized boolean spellings to a bool. The accepted
// set is exactly {true, false, 1, 0, yes, no}, lower-cased.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// ParseDateTime tries each supported layout in order.
func ParseDateTime(s string) (time.Time, bool) {
	st := strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, st); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// coercers maps each column type to its cell coercion. Coercion never
// fails hard: a cell that does not fit its column's type falls back to
// the raw string so the row survives with its original content.
var coercers = map[models.ColumnType]func(string) models.Value{
	models.ColumnTypeInteger: coerceInteger,
	models.ColumnTypeFloat:   coerceFloat,
	models.ColumnTypeString:  coerceString,
	models.ColumnTypeBoolean: coerceBoolean,
	models.ColumnTypeDateTime: func(raw string) models.Value {
		if t, ok := ParseDateTime(raw); ok {
			return models.DateTimeValue(t)
		}
		return models.StrValue(raw)
	},
}

// Coerce converts one raw cell to the typed value for its column type.
// A nil cell is null for every type.
func Coerce(raw *string, t models.ColumnType) models.Value {
	if raw == nil {
		return models.NullValue()
	}
	coerce, ok := coercers[t]
	if !ok {
		return models.StrValue(*raw)
	}
	return coerce(*raw)
}

func coerceInteger(raw string) models.Value {
	if v, ok := ParseInt(raw); ok {
		return models.IntValue(v)
	}
	return models.StrValue(raw)
}

// coerceFloat turns NaN into null the way the empty cell is null; an
// infinity keeps its raw spelling because it has no JSON number form.
func coerceFloat(raw string) models.Value {
	v, ok := ParseFloat(raw)
	if !ok {
		return models.StrValue(raw)
	}
	if math.IsNaN(v) {
		return models.NullValue()
	}
	if math.IsInf(v, 0) {
		return models.StrValue(raw)
	}
	return models.FloatValue(v)
}

func coerceString(raw string) models.Value {
	return models.StrValue(raw)
}

func coerceBoolean(raw string) models.Value {
	if v, ok := ParseBool(raw); ok {
		return models.BoolValue(v)
	}
	return models.StrValue(raw)
}
