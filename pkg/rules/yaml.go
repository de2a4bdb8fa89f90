package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// ruleFile is the on-disk rule definition format:
//
//	rules:
//	  - column: speed
//	    type: RANGE
//	    config:
//	      min: 0
//	      max: 300
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Column string         `yaml:"column"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// ParseRules decodes validation rules from YAML. Every parsed rule is
// active; rule types are normalized to upper case and must belong to the
// known set.
func ParseRules(data []byte) ([]models.ValidationRule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	parsed := make([]models.ValidationRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Column == "" {
			return nil, fmt.Errorf("rule %d: column is required", i)
		}
		ruleType := models.RuleType(strings.ToUpper(entry.Type))
		if !models.IsValidRuleType(ruleType) {
			return nil, fmt.Errorf("rule %d (%s): %w: %q", i, entry.Column, apperrors.ErrInvalidRuleType, entry.Type)
		}
		parsed = append(parsed, models.ValidationRule{
			ColumnName: entry.Column,
			RuleType:   ruleType,
			Config:     entry.Config,
			IsActive:   true,
		})
	}
	return parsed, nil
}

// LoadRules reads and parses a YAML rule file from disk.
func LoadRules(path string) ([]models.ValidationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}
