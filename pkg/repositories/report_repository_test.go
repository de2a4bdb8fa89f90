//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/testhelpers"
)

type reportTestContext struct {
	t        *testing.T
	ingestDB *testhelpers.IngestDB
	repo     ReportRepository
	datasets DatasetRepository
}

func setupReportTest(t *testing.T) *reportTestContext {
	t.Helper()

	return &reportTestContext{
		t:        t,
		ingestDB: testhelpers.GetIngestDB(t),
		repo:     NewReportRepository(),
		datasets: NewDatasetRepository(),
	}
}

func (tc *reportTestContext) createTestContext() (context.Context, func()) {
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

func (tc *reportTestContext) createParentDataset(ctx context.Context) *models.Dataset {
	tc.t.Helper()

	dataset := &models.Dataset{Name: "report-test-parent", IsActive: true}
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

func TestReportRepository_CreateAndGetLatest(t *testing.T) {
	tc := setupReportTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	report := &models.QualityReport{
		DatasetID:        dataset.ID,
		TotalRecords:     100,
		ValidRecords:     97,
		InvalidRecords:   3,
		DuplicateRecords: 5,
		Details: models.QualityDetails{
			ColumnQuality: map[string]models.ColumnQuality{
				"speed": {
					CompletenessPercentage: 98.0,
					NullCount:              2,
					UniqueValues:           84,
					DataType:               "FLOAT",
				},
			},
		},
	}
	if err := tc.repo.Create(ctx, report); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if report.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if report.ReportDate.IsZero() {
		t.Error("expected ReportDate to be set")
	}

	latest, err := tc.repo.GetLatestByDataset(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("GetLatestByDataset failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a report")
	}
	if latest.TotalRecords != 100 || latest.ValidRecords != 97 {
		t.Errorf("expected counts round trip, got total %d valid %d",
			latest.TotalRecords, latest.ValidRecords)
	}
	if latest.QualityScore() != 97.0 {
		t.Errorf("expected quality score 97, got %g", latest.QualityScore())
	}

	speed, ok := latest.Details.ColumnQuality["speed"]
	if !ok {
		t.Fatal("expected speed column quality in details")
	}
	if speed.CompletenessPercentage != 98.0 || speed.UniqueValues != 84 {
		t.Errorf("expected column quality round trip, got %+v", speed)
	}
	if speed.DataType != "FLOAT" {
		t.Errorf("expected data type FLOAT, got %q", speed.DataType)
	}
}

func TestReportRepository_GetLatest_PicksNewest(t *testing.T) {
	tc := setupReportTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	first := &models.QualityReport{DatasetID: dataset.ID, TotalRecords: 10, ValidRecords: 8}
	if err := tc.repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Ensure a strictly later report_date for the second report.
	time.Sleep(10 * time.Millisecond)

	second := &models.QualityReport{DatasetID: dataset.ID, TotalRecords: 12, ValidRecords: 12}
	if err := tc.repo.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	latest, err := tc.repo.GetLatestByDataset(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("GetLatestByDataset failed: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("expected the newest report, got %+v", latest)
	}
}

func TestReportRepository_GetLatest_NoReports(t *testing.T) {
	tc := setupReportTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	latest, err := tc.repo.GetLatestByDataset(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("GetLatestByDataset failed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for never-ingested dataset, got %+v", latest)
	}
}

func TestReportRepository_ListByDataset(t *testing.T) {
	tc := setupReportTest(t)

	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	dataset := tc.createParentDataset(ctx)

	for i := 0; i < 3; i++ {
		report := &models.QualityReport{DatasetID: dataset.ID, TotalRecords: int64(i + 1)}
		if err := tc.repo.Create(ctx, report); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	all, err := tc.repo.ListByDataset(ctx, dataset.ID, 0)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	if all[0].TotalRecords != 3 {
		t.Errorf("expected newest report first, got total %d", all[0].TotalRecords)
	}

	limited, err := tc.repo.ListByDataset(ctx, dataset.ID, 2)
	if err != nil {
		t.Fatalf("ListByDataset failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit respected, got %d reports", len(limited))
	}
}
