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

// ReportRepository provides data access for quality reports.
type ReportRepository interface {
	// Create inserts a new quality report and populates its ID and report
	// date.
	Create(ctx context.Context, report *models.QualityReport) error

	// GetLatestByDataset retrieves the most recent report for a dataset.
	// Returns nil, nil if the dataset has never been ingested.
	GetLatestByDataset(ctx context.Context, datasetID uuid.UUID) (*models.QualityReport, error)

	// ListByDataset retrieves reports for a dataset, newest first, up to
	// limit. A limit of zero or less returns all of them.
	ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QualityReport, error)
}

type reportRepository struct{}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

var _ ReportRepository = (*reportRepository)(nil)

func (r *reportRepository) Create(ctx context.Context, report *models.QualityReport) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	detailsJSON, err := json.Marshal(report.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal quality details: %w", err)
	}

	err = scope.Conn.QueryRow(ctx, `
		INSERT INTO ingest_quality_reports (
			dataset_id, total_records, valid_records, invalid_records,
			duplicate_records, quality_details
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, report_date`,
		report.DatasetID, report.TotalRecords, report.ValidRecords,
		report.InvalidRecords, report.DuplicateRecords, detailsJSON,
	).Scan(&report.ID, &report.ReportDate)

	if err != nil {
		return fmt.Errorf("failed to create quality report: %w", err)
	}

	return nil
}

func (r *reportRepository) GetLatestByDataset(ctx context.Context, datasetID uuid.UUID) (*models.QualityReport, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	row := scope.Conn.QueryRow(ctx, `
		SELECT id, dataset_id, total_records, valid_records, invalid_records,
		       duplicate_records, quality_details, report_date
		FROM ingest_quality_reports
		WHERE dataset_id = $1
		ORDER BY report_date DESC
		LIMIT 1`, datasetID)

	report, err := scanQualityReport(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quality report: %w", err)
	}

	return report, nil
}

func (r *reportRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int) ([]*models.QualityReport, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	query := `
		SELECT id, dataset_id, total_records, valid_records, invalid_records,
		       duplicate_records, quality_details, report_date
		FROM ingest_quality_reports
		WHERE dataset_id = $1
		ORDER BY report_date DESC`
	args := []any{datasetID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality reports: %w", err)
	}
	defer rows.Close()

	reports := []*models.QualityReport{}
	for rows.Next() {
		report, err := scanQualityReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quality reports: %w", err)
	}

	return reports, nil
}

func scanQualityReport(row pgx.Row) (*models.QualityReport, error) {
	report := &models.QualityReport{}
	var detailsJSON []byte
	err := row.Scan(
		&report.ID, &report.DatasetID, &report.TotalRecords, &report.ValidRecords,
		&report.InvalidRecords, &report.DuplicateRecords, &detailsJSON, &report.ReportDate,
	)
	if err != nil {
		return nil, err
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &report.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quality details: %w", err)
		}
	}

	return report, nil
}
