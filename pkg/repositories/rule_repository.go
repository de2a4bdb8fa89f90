package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// RuleRepository provides data access for validation rules.
type RuleRepository interface {
	// Create inserts a new validation rule and populates its ID and
	// creation timestamp.
	Create(ctx context.Context, rule *models.ValidationRule) error

	// ReplaceForDataset deletes the dataset's existing rules and inserts
	// the given ones.
	ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, rules []*models.ValidationRule) error

	// ListByDataset retrieves the dataset's rules, oldest first. With
	// activeOnly set, inactive rules are excluded.
	ListByDataset(ctx context.Context, datasetID uuid.UUID, activeOnly bool) ([]*models.ValidationRule, error)

	// SetActive toggles a rule on or off without deleting it.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Delete removes a rule.
	Delete(ctx context.Context, id uuid.UUID) error
}

type ruleRepository struct{}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository() RuleRepository {
	return &ruleRepository{}
}

var _ RuleRepository = (*ruleRepository)(nil)

func (r *ruleRepository) Create(ctx context.Context, rule *models.ValidationRule) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	configJSON, err := marshalRuleConfig(rule.Config)
	if err != nil {
		return err
	}

	err = scope.Conn.QueryRow(ctx, `
		INSERT INTO ingest_validation_rules (
			dataset_id, column_name, rule_type, rule_config, is_active
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		rule.DatasetID, rule.ColumnName, rule.RuleType, configJSON, rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create validation rule: %w", err)
	}

	return nil
}

func (r *ruleRepository) ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, rules []*models.ValidationRule) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_validation_rules WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete existing rules: %w", err)
	}

	for _, rule := range rules {
		configJSON, err := marshalRuleConfig(rule.Config)
		if err != nil {
			return err
		}

		err = scope.Conn.QueryRow(ctx, `
			INSERT INTO ingest_validation_rules (
				dataset_id, column_name, rule_type, rule_config, is_active
			) VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			datasetID, rule.ColumnName, rule.RuleType, configJSON, rule.IsActive,
		).Scan(&rule.ID, &rule.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert validation rule for %q: %w", rule.ColumnName, err)
		}
		rule.DatasetID = datasetID
	}

	return nil
}

func (r *ruleRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID, activeOnly bool) ([]*models.ValidationRule, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT id, dataset_id, column_name, rule_type, rule_config, is_active, created_at
		FROM ingest_validation_rules
		WHERE dataset_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at, id`

	rows, err := scope.Conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation rules: %w", err)
	}
	defer rows.Close()

	rules := []*models.ValidationRule{}
	for rows.Next() {
		rule, err := scanValidationRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation rules: %w", err)
	}

	return rules, nil
}

func (r *ruleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_validation_rules
		SET is_active = $2
		WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set rule active flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("validation rule not found")
	}

	return nil
}

func (r *ruleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_validation_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete validation rule: %w", err)
	}

	return nil
}

func marshalRuleConfig(config map[string]any) ([]byte, error) {
	if config == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule_config: %w", err)
	}
	return data, nil
}

func scanValidationRule(row pgx.Row) (*models.ValidationRule, error) {
	rule := &models.ValidationRule{}
	var configJSON []byte
	err := row.Scan(
		&rule.ID, &rule.DatasetID, &rule.ColumnName, &rule.RuleType,
		&configJSON, &rule.IsActive, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &rule.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule_config: %w", err)
		}
	}

	return rule, nil
}
