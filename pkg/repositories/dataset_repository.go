package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// DatasetRepository provides data access for datasets.
type DatasetRepository interface {
	// Create inserts a new dataset and populates its ID and timestamps.
	Create(ctx context.Context, dataset *models.Dataset) error

	// GetByID retrieves a dataset by ID. Returns nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)

	// Update persists the mutable descriptive fields of a dataset.
	Update(ctx context.Context, dataset *models.Dataset) error

	// UpdateRowCount sets total_rows after an ingestion run commits.
	UpdateRowCount(ctx context.Context, id uuid.UUID, totalRows int64) error

	// SetActive toggles the soft-delete flag.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Delete removes a dataset and, via cascade, everything ingested
	// under it.
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns one page of active datasets matching the query,
	// newest first, along with the total match count.
	Search(ctx context.Context, q models.DatasetSearchQuery) (*models.DatasetSearchResult, error)
}

type datasetRepository struct{}

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository() DatasetRepository {
	return &datasetRepository{}
}

var _ DatasetRepository = (*datasetRepository)(nil)

func (r *datasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO ingest_datasets (
			name, description, vehicle_model, measurement_date,
			measurement_location, total_rows, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		dataset.Name, dataset.Description, dataset.VehicleModel,
		dataset.MeasurementDate, dataset.MeasurementLocation,
		dataset.TotalRows, dataset.IsActive,
	).Scan(&dataset.ID, &dataset.CreatedAt, &dataset.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	return nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	row := scope.Conn.QueryRow(ctx, `
		SELECT id, name, description, vehicle_model, measurement_date,
		       measurement_location, total_rows, is_active, created_at, updated_at
		FROM ingest_datasets
		WHERE id = $1`, id)

	dataset, err := scanDataset(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	return dataset, nil
}

func (r *datasetRepository) Update(ctx context.Context, dataset *models.Dataset) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_datasets
		SET name = $2, description = $3, vehicle_model = $4,
		    measurement_date = $5, measurement_location = $6, updated_at = now()
		WHERE id = $1`,
		dataset.ID, dataset.Name, dataset.Description, dataset.VehicleModel,
		dataset.MeasurementDate, dataset.MeasurementLocation,
	)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dataset not found")
	}

	return nil
}

func (r *datasetRepository) UpdateRowCount(ctx context.Context, id uuid.UUID, totalRows int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_datasets
		SET total_rows = $2, updated_at = now()
		WHERE id = $1`, id, totalRows)
	if err != nil {
		return fmt.Errorf("failed to update dataset row count: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dataset not found")
	}

	return nil
}

func (r *datasetRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_datasets
		SET is_active = $2, updated_at = now()
		WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set dataset active flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dataset not found")
	}

	return nil
}

func (r *datasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	return nil
}

func (r *datasetRepository) Search(ctx context.Context, q models.DatasetSearchQuery) (*models.DatasetSearchResult, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	conditions := []string{"is_active = true"}
	args := []any{}
	argIdx := 1

	if q.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+q.Query+"%")
		argIdx++
	}
	if q.VehicleModel != "" {
		conditions = append(conditions, fmt.Sprintf("vehicle_model ILIKE $%d", argIdx))
		args = append(args, "%"+q.VehicleModel+"%")
		argIdx++
	}
	if q.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *q.From)
		argIdx++
	}
	if q.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *q.To)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM ingest_datasets WHERE %s`, where)
	var total int64
	if err := scope.Conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count datasets: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, name, description, vehicle_model, measurement_date,
		       measurement_location, total_rows, is_active, created_at, updated_at
		FROM ingest_datasets
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)

	args = append(args, limit, q.Offset)

	rows, err := scope.Conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search datasets: %w", err)
	}
	defer rows.Close()

	datasets := []*models.Dataset{}
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, dataset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}

	return &models.DatasetSearchResult{Datasets: datasets, TotalCount: total}, nil
}

func scanDataset(row pgx.Row) (*models.Dataset, error) {
	dataset := &models.Dataset{}
	err := row.Scan(
		&dataset.ID, &dataset.Name, &dataset.Description, &dataset.VehicleModel,
		&dataset.MeasurementDate, &dataset.MeasurementLocation,
		&dataset.TotalRows, &dataset.IsActive, &dataset.CreatedAt, &dataset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return dataset, nil
}
