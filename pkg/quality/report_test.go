package quality

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/rlake-data/ingest-engine/pkg/infer"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/sniff"
)

func strp(v string) *string { return &v }

func TestBuildReport(t *testing.T) {
	table := &sniff.Table{
		Columns: []string{"speed", "rpm"},
		Rows: [][]*string{
			{strp("10"), strp("1000")},
			{nil, strp("1200")},
			{strp("10"), strp("1000")},
		},
	}
	types := infer.ColumnTypes(table)
	stats := map[string]infer.ColumnStats{}
	for _, name := range table.Columns {
		stats[name] = infer.ComputeStats(table.ColumnValues(name), types[name])
	}

	datasetID := uuid.New()
	report := BuildReport(datasetID, Counts{TotalRows: 3, ErrorRows: 0, DuplicateRows: 1}, table.Columns, types, stats)

	if report.DatasetID != datasetID {
		t.Errorf("DatasetID = %s, want %s", report.DatasetID, datasetID)
	}
	if report.TotalRecords != 3 || report.ValidRecords != 3 || report.InvalidRecords != 0 {
		t.Errorf("record counts = %d/%d/%d, want 3/3/0",
			report.TotalRecords, report.ValidRecords, report.InvalidRecords)
	}
	if report.DuplicateRecords != 1 {
		t.Errorf("DuplicateRecords = %d, want 1", report.DuplicateRecords)
	}
	if got := report.QualityScore(); got != 100 {
		t.Errorf("QualityScore() = %g, want 100", got)
	}

	speed, ok := report.Details.ColumnQuality["speed"]
	if !ok {
		t.Fatal("speed column missing from report details")
	}
	if math.Abs(speed.CompletenessPercentage-200.0/3.0) > 1e-9 {
		t.Errorf("speed completeness = %g, want %g", speed.CompletenessPercentage, 200.0/3.0)
	}
	if speed.NullCount != 1 || speed.UniqueValues != 1 {
		t.Errorf("speed null/unique = %d/%d, want 1/1", speed.NullCount, speed.UniqueValues)
	}
	if speed.DataType != string(models.ColumnTypeFloat) {
		t.Errorf("speed data type = %s, want FLOAT", speed.DataType)
	}

	rpm := report.Details.ColumnQuality["rpm"]
	if rpm.CompletenessPercentage != 100 || rpm.NullCount != 0 {
		t.Errorf("rpm completeness/nulls = %g/%d, want 100/0", rpm.CompletenessPercentage, rpm.NullCount)
	}
	if rpm.UniqueValues != 2 {
		t.Errorf("rpm unique = %d, want 2", rpm.UniqueValues)
	}
	if rpm.DataType != string(models.ColumnTypeInteger) {
		t.Errorf("rpm data type = %s, want INTEGER", rpm.DataType)
	}
}

func TestBuildReportWithErrorRows(t *testing.T) {
	report := BuildReport(uuid.New(), Counts{TotalRows: 10, ErrorRows: 3, DuplicateRows: 2}, nil, nil, nil)

	if report.ValidRecords != 7 {
		t.Errorf("ValidRecords = %d, want 7", report.ValidRecords)
	}
	if got := report.QualityScore(); got != 70 {
		t.Errorf("QualityScore() = %g, want 70", got)
	}
}

func TestQualityScoreZeroRecords(t *testing.T) {
	report := BuildReport(uuid.New(), Counts{}, nil, nil, nil)

	if got := report.QualityScore(); got != 0 {
		t.Errorf("QualityScore() = %g, want 0 for an empty dataset", got)
	}
}
