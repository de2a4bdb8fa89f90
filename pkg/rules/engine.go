// Package rules evaluates configurable validation rules against
// materialized row values. Rule evaluation is independent of ingestion:
// it consumes stored records plus externally configured rules and
// produces pass/fail judgements without feeding back into the pipeline.
package rules

import (
	"fmt"
	"regexp"

	"github.com/rlake-data/ingest-engine/pkg/infer"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// Evaluate applies one rule to a value and reports whether it passes.
// Rule types without a per-record evaluator (UNIQUE, CUSTOM) always pass
// here; they are enforced elsewhere or not at all.
func Evaluate(rule models.ValidationRule, value models.Value) bool {
	switch rule.RuleType {
	case models.RuleTypeRange:
		return validateRange(value, rule.Config)
	case models.RuleTypePattern:
		return validatePattern(value, rule.Config)
	case models.RuleTypeNotNull:
		return validateNotNull(value)
	default:
		return true
	}
}

// ValidateRecord evaluates every active rule against one row's values
// and collects all failures, not just the first. A rule naming a column
// absent from the row sees the null value.
func ValidateRecord(data map[string]models.Value, rules []models.ValidationRule) (bool, []string) {
	var failures []string
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !Evaluate(rule, data[rule.ColumnName]) {
			failures = append(failures, fmt.Sprintf("%s: %s validation failed", rule.ColumnName, rule.RuleType))
		}
	}
	return len(failures) == 0, failures
}

// RecordResult is the judgement for one record, in record order.
type RecordResult struct {
	Passed   bool
	Failures []string
}

// ValidateRecords applies the rule set to every record and returns one
// result per record, index-aligned with the input.
func ValidateRecords(records []map[string]models.Value, rules []models.ValidationRule) []RecordResult {
	results := make([]RecordResult, len(records))
	for i, data := range records {
		passed, failures := ValidateRecord(data, rules)
		results[i] = RecordResult{Passed: passed, Failures: failures}
	}
	return results
}

// validateRange checks the value against inclusive min/max bounds. A
// value without a numeric form fails, as does a bound that is configured
// but not numeric.
func validateRange(v models.Value, config map[string]any) bool {
	num, ok := numericValue(v)
	if !ok {
		return false
	}
	minBound, ok := boundFloat(config, "min")
	if !ok {
		return false
	}
	maxBound, ok := boundFloat(config, "max")
	if !ok {
		return false
	}
	if minBound != nil && num < *minBound {
		return false
	}
	if maxBound != nil && num > *maxBound {
		return false
	}
	return true
}

// validatePattern matches the value's string form against the configured
// pattern, anchored at position 0 only. Missing or empty pattern config
// passes; a malformed pattern or a null value fails closed.
func validatePattern(v models.Value, config map[string]any) bool {
	raw, exists := config["pattern"]
	if !exists || raw == nil {
		return true
	}
	pattern, ok := raw.(string)
	if !ok {
		return false
	}
	if pattern == "" {
		return true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	if v.IsNull() {
		return false
	}
	loc := re.FindStringIndex(v.String())
	return loc != nil && loc[0] == 0
}

func validateNotNull(v models.Value) bool {
	if v.IsNull() {
		return false
	}
	return !(v.Kind == models.KindStr && v.Str == "")
}

// numericValue extracts the float form of a value for range checks.
// String values get a float parse; booleans and datetimes have no
// numeric form.
func numericValue(v models.Value) (float64, bool) {
	switch v.Kind {
	case models.KindInt:
		return float64(v.Int), true
	case models.KindFloat:
		return v.Float, true
	case models.KindStr:
		return infer.ParseFloat(v.Str)
	default:
		return 0, false
	}
}

// boundFloat reads an optional numeric bound from rule config. Absent or
// nil bounds are unconstrained; a present non-numeric bound invalidates
// the rule.
func boundFloat(config map[string]any, key string) (*float64, bool) {
	raw, exists := config[key]
	if !exists || raw == nil {
		return nil, true
	}
	switch n := raw.(type) {
	case float64:
		return &n, true
	case float32:
		f := float64(n)
		return &f, true
	case int:
		f := float64(n)
		return &f, true
	case int64:
		f := float64(n)
		return &f, true
	default:
		return nil, false
	}
}
