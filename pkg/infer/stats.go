package infer

import (
	"math"

	"github.com/rlake-data/ingest-engine/pkg/models"
)

// ColumnStats holds the per-column profile stored on the schema. The
// numeric aggregates are nil when the column type is not numeric or no
// value was coercible.
type ColumnStats struct {
	Min            *float64
	Max            *float64
	Mean           *float64
	Std            *float64
	UniqueCount    int64
	NullCount      int64
	NullPercentage float64
}

// ComputeStats profiles one column. Null counting runs over the full
// column, uniqueness over the raw non-null cells, and the numeric
// aggregates over the subset of cells that coerce to a finite float.
// Std is the sample standard deviation and needs at least two values.
func ComputeStats(values []*string, t models.ColumnType) ColumnStats {
	total := int64(len(values))
	nonNull := nonNullValues(values)

	stats := ColumnStats{NullCount: total - int64(len(nonNull))}
	if total > 0 {
		stats.NullPercentage = float64(stats.NullCount) / float64(total) * 100
	}

	distinct := make(map[string]struct{}, len(nonNull))
	for _, v := range nonNull {
		distinct[v] = struct{}{}
	}
	stats.UniqueCount = int64(len(distinct))

	if !t.IsNumeric() {
		return stats
	}
	floats := coercibleFloats(nonNull)
	if len(floats) == 0 {
		return stats
	}

	minV, maxV := floats[0], floats[0]
	var sum float64
	for _, f := range floats {
		if f < minV {
			minV = f
		}
		if f > maxV {
			maxV = f
		}
		sum += f
	}
	mean := sum / float64(len(floats))
	stats.Min, stats.Max, stats.Mean = &minV, &maxV, &mean

	if len(floats) >= 2 {
		var ss float64
		for _, f := range floats {
			d := f - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(len(floats)-1))
		stats.Std = &std
	}
	return stats
}

// coercibleFloats keeps the values the float coercion would keep: finite
// floats only, so stats line up with what materialization stores.
func coercibleFloats(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := ParseFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, f)
	}
	return out
}
