//go:build integration

package migrations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlake-data/ingest-engine/pkg/testhelpers"
)

// Test_001_IngestTables verifies migration 001 creates the ingestion tables
// with the shapes the repositories depend on.
func Test_001_IngestTables(t *testing.T) {
	ingestDB := testhelpers.GetIngestDB(t)
	ctx := context.Background()

	tables := []string{
		"ingest_datasets",
		"ingest_raw_files",
		"ingest_data_schemas",
		"ingest_data_records",
		"ingest_validation_rules",
		"ingest_quality_reports",
	}
	for _, table := range tables {
		var exists bool
		err := ingestDB.DB.Pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err, "Failed to query table information")
		assert.True(t, exists, "%s table should exist", table)
	}

	// Record payloads are JSONB with a fixed-width hash column.
	var dataType string
	err := ingestDB.DB.Pool.QueryRow(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_name = 'ingest_data_records' AND column_name = 'data'
	`).Scan(&dataType)
	require.NoError(t, err, "Failed to query data column")
	assert.Equal(t, "jsonb", dataType, "data column should be JSONB type")

	var hashLength int
	err = ingestDB.DB.Pool.QueryRow(ctx, `
		SELECT character_maximum_length FROM information_schema.columns
		WHERE table_name = 'ingest_data_records' AND column_name = 'data_hash'
	`).Scan(&hashLength)
	require.NoError(t, err, "Failed to query data_hash column")
	assert.Equal(t, 64, hashLength, "data_hash should hold a SHA-256 hex digest")

	var hashIndexExists bool
	err = ingestDB.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'ingest_data_records'
			AND indexname = 'idx_ingest_data_records_hash'
		)
	`).Scan(&hashIndexExists)
	require.NoError(t, err, "Failed to query index information")
	assert.True(t, hashIndexExists, "idx_ingest_data_records_hash index should exist")

	var comment string
	err = ingestDB.DB.Pool.QueryRow(ctx, `
		SELECT col_description('ingest_data_records'::regclass,
			(SELECT ordinal_position
			 FROM information_schema.columns
			 WHERE table_name = 'ingest_data_records'
			 AND column_name = 'data_hash'))
	`).Scan(&comment)
	require.NoError(t, err, "Failed to query column comment")
	assert.Contains(t, comment, "SHA-256", "Column should document the hash algorithm")
}

// Test_001_IngestTables_Constraints verifies row-number uniqueness and the
// dataset cascade.
func Test_001_IngestTables_Constraints(t *testing.T) {
	ingestDB := testhelpers.GetIngestDB(t)
	ctx := context.Background()
	datasetID := uuid.New()

	defer func() {
		_, _ = ingestDB.DB.Pool.Exec(ctx, "DELETE FROM ingest_datasets WHERE id = $1", datasetID)
	}()

	_, err := ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_datasets (id, name) VALUES ($1, 'migration-test-dataset')
	`, datasetID)
	require.NoError(t, err, "Failed to create test dataset")

	// Children in every dependent table.
	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_raw_files (dataset_id, original_filename) VALUES ($1, 'test.csv')
	`, datasetID)
	require.NoError(t, err, "Failed to create raw file")

	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_data_schemas (dataset_id, column_name, column_type, column_order)
		VALUES ($1, 'speed', 'FLOAT', 0)
	`, datasetID)
	require.NoError(t, err, "Failed to create schema column")

	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_data_records (dataset_id, row_number, data, data_hash)
		VALUES ($1, 1, '{"speed": 51.3}'::jsonb, 'abc123')
	`, datasetID)
	require.NoError(t, err, "Failed to create record")

	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_validation_rules (dataset_id, column_name, rule_type)
		VALUES ($1, 'speed', 'RANGE')
	`, datasetID)
	require.NoError(t, err, "Failed to create validation rule")

	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_quality_reports (dataset_id, total_records, valid_records, invalid_records, duplicate_records)
		VALUES ($1, 1, 1, 0, 0)
	`, datasetID)
	require.NoError(t, err, "Failed to create quality report")

	// A second record with the same row number is rejected.
	_, err = ingestDB.DB.Pool.Exec(ctx, `
		INSERT INTO ingest_data_records (dataset_id, row_number, data, data_hash)
		VALUES ($1, 1, '{"speed": 60.0}'::jsonb, 'def456')
	`, datasetID)
	assert.Error(t, err, "duplicate (dataset_id, row_number) should violate the unique constraint")

	// Deleting the dataset cascades to every child table.
	_, err = ingestDB.DB.Pool.Exec(ctx, "DELETE FROM ingest_datasets WHERE id = $1", datasetID)
	require.NoError(t, err, "Failed to delete dataset")

	for _, table := range []string{
		"ingest_raw_files",
		"ingest_data_schemas",
		"ingest_data_records",
		"ingest_validation_rules",
		"ingest_quality_reports",
	} {
		var count int
		err = ingestDB.DB.Pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE dataset_id = $1", datasetID,
		).Scan(&count)
		require.NoError(t, err, "Failed to count rows in %s", table)
		assert.Zero(t, count, "%s rows should cascade on dataset delete", table)
	}
}
