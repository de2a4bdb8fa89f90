package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// SchemaRepository provides data access for inferred dataset schemas.
// A dataset's schema is replaced wholesale on every ingestion run, never
// merged column by column.
type SchemaRepository interface {
	// ReplaceForDataset deletes the dataset's existing schema and inserts
	// the given columns in order. Run inside the caller's transaction when
	// atomicity with record materialization is required.
	ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, columns []*models.SchemaColumn) error

	// GetByDataset retrieves the dataset's schema columns in column order.
	GetByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.SchemaColumn, error)

	// DeleteByDataset removes all schema columns for a dataset.
	DeleteByDataset(ctx context.Context, datasetID uuid.UUID) error
}

type schemaRepository struct{}

// NewSchemaRepository creates a new SchemaRepository.
func NewSchemaRepository() SchemaRepository {
	return &schemaRepository{}
}

var _ SchemaRepository = (*schemaRepository)(nil)

func (r *schemaRepository) ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, columns []*models.SchemaColumn) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_data_schemas WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete existing schema: %w", err)
	}

	for _, col := range columns {
		err := scope.Conn.QueryRow(ctx, `
			INSERT INTO ingest_data_schemas (
				dataset_id, column_name, column_type, is_nullable, column_order,
				min_value, max_value, mean_value, std_value, unique_count, null_count
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			datasetID, col.ColumnName, col.ColumnType, col.IsNullable, col.ColumnOrder,
			col.MinValue, col.MaxValue, col.MeanValue, col.StdValue,
			col.UniqueCount, col.NullCount,
		).Scan(&col.ID)
		if err != nil {
			return fmt.Errorf("failed to insert schema column %q: %w", col.ColumnName, err)
		}
		col.DatasetID = datasetID
	}

	return nil
}

func (r *schemaRepository) GetByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.SchemaColumn, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, dataset_id, column_name, column_type, is_nullable, column_order,
		       min_value, max_value, mean_value, std_value, unique_count, null_count
		FROM ingest_data_schemas
		WHERE dataset_id = $1
		ORDER BY column_order`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	defer rows.Close()

	columns := []*models.SchemaColumn{}
	for rows.Next() {
		col, err := scanSchemaColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema columns: %w", err)
	}

	return columns, nil
}

func (r *schemaRepository) DeleteByDataset(ctx context.Context, datasetID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_data_schemas WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}

	return nil
}

func scanSchemaColumn(row pgx.Row) (*models.SchemaColumn, error) {
	col := &models.SchemaColumn{}
	err := row.Scan(
		&col.ID, &col.DatasetID, &col.ColumnName, &col.ColumnType,
		&col.IsNullable, &col.ColumnOrder,
		&col.MinValue, &col.MaxValue, &col.MeanValue, &col.StdValue,
		&col.UniqueCount, &col.NullCount,
	)
	if err != nil {
		return nil, err
	}
	return col, nil
}
