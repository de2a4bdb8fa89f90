//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/testhelpers"
)

type ruleTestContext struct {
	t        *testing.T
	ingestDB *testhelpers.IngestDB
	repo     RuleRepository
	datasets DatasetRepository
}

func setupRuleTest(t *testing.T) *ruleTestContext {
	t.Helper()

	return &ruleTestContext{
		t:        t,
		ingestDB: testhelpers.GetIngestDB(t),
		repo:     NewRuleRepository(),
		datasets: NewDatasetRepository(),
	}
}

func (tc *ruleTestContext) createTestContext() (context.Context, func()) {
	tc.t.Helper()

	ctx := context.Background()
	scope, err := tc.ingestDB.DB.NewScope(ctx)
	if err != nil {
		tc.t.Fatalf("Failed to create connection scope: %v", err)
	}

	ctx = database.SetScope(ctx, scope)

	return ctx, func() {
		scope.Close()
	}
}

func (tc *ruleTestContext) createParentDataset(ctx context.Context) *models.Dataset {
	tc.t.Helper()

	dataset := &models.Dataset{Name: "rule-test-parent", IsActive: true}
	if err := tc.datasets.Create(ctx, dataset); err != nil {
		tc.t.Fatalf("Failed to create parent dataset: %v", err)
	}
	tc.t.Cleanup(func() {
		ctx, cleanup := tc.createTestContext()
		defer cleanup()
		if err := tc.datasets.Delete(ctx, dataset.ID); err != nil {
			tc.t.Errorf("Failed to delete parent dataset: %v", err)
		}
	})
	return dataset
}

func TestRuleRepository_Create(t *testing.T) {
	tc := setupRuleTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	rule := &models.ValidationRule{
		DatasetID:  dataset.ID,
		ColumnName: "speed",
		RuleType:   models.RuleTypeRange,
		Config:     map[string]any{"min": 0.0, "max": 200.0},
		IsActive:   true,
	}
	if err := tc.repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if rule.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if rule.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	rules, err := tc.repo.ListByDataset(ctx, dataset.ID, false)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	stored := rules[0]
	if stored.RuleType != models.RuleTypeRange {
		t.Errorf("expected RANGE, got %s", stored.RuleType)
	}
	// JSONB numbers come back as float64.
	if stored.Config["min"] != 0.0 || stored.Config["max"] != 200.0 {
		t.Errorf("expected config round trip, got %v", stored.Config)
	}
}

func TestRuleRepository_ListByDataset_ActiveOnly(t *testing.T) {
	tc := setupRuleTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	active := &models.ValidationRule{
		DatasetID:  dataset.ID,
		ColumnName: "label",
		RuleType:   models.RuleTypeNotNull,
		IsActive:   true,
	}
	inactive := &models.ValidationRule{
		DatasetID:  dataset.ID,
		ColumnName: "label",
		RuleType:   models.RuleTypePattern,
		Config:     map[string]any{"pattern": "^ok"},
		IsActive:   false,
	}
	for _, rule := range []*models.ValidationRule{active, inactive} {
		if err := tc.repo.Create(ctx, rule); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := tc.repo.ListByDataset(ctx, dataset.ID, false)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 rules without filter, got %d", len(all))
	}

	activeOnly, err := tc.repo.ListByDataset(ctx, dataset.ID, true)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(activeOnly) != 1 {
		t.Fatalf("expected 1 active rule, got %d", len(activeOnly))
	}
	if activeOnly[0].ID != active.ID {
		t.Error("expected only the active rule")
	}
}

func TestRuleRepository_ReplaceForDataset(t *testing.T) {
	tc := setupRuleTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	old := &models.ValidationRule{
		DatasetID:  dataset.ID,
		ColumnName: "speed",
		RuleType:   models.RuleTypeRange,
		Config:     map[string]any{"max": 100.0},
		IsActive:   true,
	}
	if err := tc.repo.Create(ctx, old); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	replacement := []*models.ValidationRule{
		{ColumnName: "speed", RuleType: models.RuleTypeRange, Config: map[string]any{"max": 150.0}, IsActive: true},
		{ColumnName: "label", RuleType: models.RuleTypeNotNull, IsActive: true},
	}
	if err := tc.repo.ReplaceForDataset(ctx, dataset.ID, replacement); err != nil {
		t.Fatalf("ReplaceForDataset failed: %v", err)
	}

	rules, err := tc.repo.ListByDataset(ctx, dataset.ID, false)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules after replace, got %d", len(rules))
	}
	for _, rule := range rules {
		if rule.ID == old.ID {
			t.Error("expected old rule to be gone after replace")
		}
		if rule.DatasetID != dataset.ID {
			t.Error("expected DatasetID stamped on replacement rules")
		}
	}
}

func TestRuleRepository_SetActiveAndDelete(t *testing.T) {
	tc := setupRuleTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	rule := &models.ValidationRule{
		DatasetID:  dataset.ID,
		ColumnName: "speed",
		RuleType:   models.RuleTypeNotNull,
		IsActive:   true,
	}
	if err := tc.repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := tc.repo.SetActive(ctx, rule.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	activeOnly, err := tc.repo.ListByDataset(ctx, dataset.ID, true)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(activeOnly) != 0 {
		t.Errorf("expected no active rules after deactivation, got %d", len(activeOnly))
	}

	if err := tc.repo.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	all, err := tc.repo.ListByDataset(ctx, dataset.ID, false)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no rules after delete, got %d", len(all))
	}
}

func TestRuleRepository_SetActive_NotFound(t *testing.T) {
	tc := setupRuleTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	if err := tc.repo.SetActive(ctx, uuid.New(), true); err == nil {
		t.Fatal("expected error for unknown rule")
	}
}
