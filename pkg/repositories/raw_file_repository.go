package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
)

// RawFileRepository provides data access for uploaded-file artifacts.
type RawFileRepository interface {
	// Create inserts a new raw file record and populates its ID and
	// upload timestamp.
	Create(ctx context.Context, file *models.RawFile) error

	// GetByID retrieves a raw file by ID. Returns nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.RawFile, error)

	// MarkProcessed records a successful ingestion on the file: the
	// detected encoding and delimiter, processed = true, and a cleared
	// processing error.
	MarkProcessed(ctx context.Context, id uuid.UUID, encoding, delimiter string) error

	// RecordError records a failed ingestion attempt on the file.
	RecordError(ctx context.Context, id uuid.UUID, processingError string) error

	// ListByDataset retrieves all raw files for a dataset, newest first.
	ListByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.RawFile, error)
}

type rawFileRepository struct{}

// NewRawFileRepository creates a new RawFileRepository.
func NewRawFileRepository() RawFileRepository {
	return &rawFileRepository{}
}

var _ RawFileRepository = (*rawFileRepository)(nil)

func (r *rawFileRepository) Create(ctx context.Context, file *models.RawFile) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	encoding := file.Encoding
	if encoding == "" {
		encoding = "utf-8"
	}
	delimiter := file.Delimiter
	if delimiter == "" {
		delimiter = ","
	}

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO ingest_raw_files (
			dataset_id, original_filename, file_size, encoding, delimiter,
			processed, processing_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at`,
		file.DatasetID, file.OriginalFilename, file.FileSize,
		encoding, delimiter, file.Processed, file.ProcessingError,
	).Scan(&file.ID, &file.UploadedAt)

	if err != nil {
		return fmt.Errorf("failed to create raw file: %w", err)
	}

	file.Encoding = encoding
	file.Delimiter = delimiter
	return nil
}

func (r *rawFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RawFile, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	row := scope.Conn.QueryRow(ctx, `
		SELECT id, dataset_id, original_filename, file_size, encoding,
		       delimiter, processed, processing_error, uploaded_at
		FROM ingest_raw_files
		WHERE id = $1`, id)

	file, err := scanRawFile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw file: %w", err)
	}

	return file, nil
}

func (r *rawFileRepository) MarkProcessed(ctx context.Context, id uuid.UUID, encoding, delimiter string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_raw_files
		SET processed = true, encoding = $2, delimiter = $3, processing_error = ''
		WHERE id = $1`, id, encoding, delimiter)
	if err != nil {
		return fmt.Errorf("failed to mark raw file processed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw file not found")
	}

	return nil
}

func (r *rawFileRepository) RecordError(ctx context.Context, id uuid.UUID, processingError string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE ingest_raw_files
		SET processed = false, processing_error = $2
		WHERE id = $1`, id, processingError)
	if err != nil {
		return fmt.Errorf("failed to record raw file error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw file not found")
	}

	return nil
}

func (r *rawFileRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.RawFile, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no connection scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, dataset_id, original_filename, file_size, encoding,
		       delimiter, processed, processing_error, uploaded_at
		FROM ingest_raw_files
		WHERE dataset_id = $1
		ORDER BY uploaded_at DESC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw files: %w", err)
	}
	defer rows.Close()

	files := []*models.RawFile{}
	for rows.Next() {
		file, err := scanRawFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw files: %w", err)
	}

	return files, nil
}

func scanRawFile(row pgx.Row) (*models.RawFile, error) {
	file := &models.RawFile{}
	err := row.Scan(
		&file.ID, &file.DatasetID, &file.OriginalFilename, &file.FileSize,
		&file.Encoding, &file.Delimiter, &file.Processed,
		&file.ProcessingError, &file.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}
