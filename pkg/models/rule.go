package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleType is the closed set of validation rule types.
type RuleType string

const (
	RuleTypeRange   RuleType = "RANGE"
	RuleTypePattern RuleType = "PATTERN"
	RuleTypeNotNull RuleType = "NOT_NULL"
	RuleTypeUnique  RuleType = "UNIQUE"
	RuleTypeCustom  RuleType = "CUSTOM"
)

// ValidRuleTypes contains all valid rule type values.
var ValidRuleTypes = []RuleType{
	RuleTypeRange,
	RuleTypePattern,
	RuleTypeNotNull,
	RuleTypeUnique,
	RuleTypeCustom,
}

// IsValidRuleType checks if the given rule type is valid.
func IsValidRuleType(t RuleType) bool {
	for _, v := range ValidRuleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ValidationRule is a configurable data-quality rule bound to one column
// of a dataset. Config carries the rule parameters: RANGE reads inclusive
// "min"/"max" bounds, PATTERN reads "pattern". UNIQUE and CUSTOM are valid
// types for the shared model but the per-row evaluator skips them.
type ValidationRule struct {
	ID         uuid.UUID      `json:"id"`
	DatasetID  uuid.UUID      `json:"dataset_id"`
	ColumnName string         `json:"column_name"`
	RuleType   RuleType       `json:"rule_type"`
	Config     map[string]any `json:"config"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
}
