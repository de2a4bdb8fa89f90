package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// RecordRepository provides data access for materialized data records.
type RecordRepository interface {
	// BulkInsert inserts records using COPY in batches of batchSize rows.
	// IDs and import timestamps are assigned here for records that lack
	// them. A batchSize of zero or less falls back to 1000.
	BulkInsert(ctx context.Context, records []*models.Record, batchSize int) error

	// ListByDataset retrieves all records for a dataset ordered by row
	// number.
	ListByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Record, error)

	// CountByDataset returns the number of stored records for a dataset.
	CountByDataset(ctx context.Context, datasetID uuid.UUID) (int64, error)

	// DeleteByDataset removes all records for a dataset.
	DeleteByDataset(ctx context.Context, datasetID uuid.UUID) error
}

type recordRepository struct{}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository() RecordRepository {
	return &recordRepository{}
}

var _ RecordRepository = (*recordRepository)(nil)

func (r *recordRepository) BulkInsert(ctx context.Context, records []*models.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	if batchSize <= 0 {
		batchSize = 1000
	}

	now := time.Now()
	columns := []string{"id", "dataset_id", "row_number", "data", "data_hash", "imported_at"}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		rows := make([][]any, len(batch))
		for i, record := range batch {
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
			if record.ImportedAt.IsZero() {
				record.ImportedAt = now
			}

			dataJSON, err := json.Marshal(record.Data)
			if err != nil {
				return fmt.Errorf("failed to marshal record data: %w", err)
			}

			rows[i] = []any{
				record.ID, record.DatasetID, record.RowNumber,
				dataJSON, record.DataHash, record.ImportedAt,
			}
		}

		_, err := scope.Conn.CopyFrom(
			ctx,
			pgx.Identifier{"ingest_data_records"},
			columns,
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to bulk insert records: %w", err)
		}
	}

	return nil
}

func (r *recordRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Record, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, dataset_id, row_number, data, data_hash, imported_at
		FROM ingest_data_records
		WHERE dataset_id = $1
		ORDER BY row_number`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

func (r *recordRepository) CountByDataset(ctx context.Context, datasetID uuid.UUID) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no connection scope in context")
	}

	var count int64
	err := scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM ingest_data_records WHERE dataset_id = $1`,
		datasetID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}

func (r *recordRepository) DeleteByDataset(ctx context.Context, datasetID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	_, err := scope.Conn.Exec(ctx, `DELETE FROM ingest_data_records WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	return nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	record := &models.Record{}
	var dataJSON []byte
	err := row.Scan(
		&record.ID, &record.DatasetID, &record.RowNumber,
		&dataJSON, &record.DataHash, &record.ImportedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &record.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
		}
	}

	return record, nil
}
