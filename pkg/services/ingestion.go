package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/infer"
	"github.com/rlake-data/ingest-engine/pkg/logging"
	"github.com/rlake-data/ingest-engine/pkg/materialize"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/quality"
	"github.com/rlake-data/ingest-engine/pkg/repositories"
	"github.com/rlake-data/ingest-engine/pkg/sniff"
)

// IngestionService runs the CSV ingestion pipeline end to end.
type IngestionService interface {
	// Ingest processes raw file bytes into the dataset: detects encoding
	// and delimiter, parses the table, infers a schema, materializes
	// records, and commits schema, records, rules (when provided), the
	// dataset row count, the raw-file artifact state, and a quality report
	// in a single transaction. Re-ingesting a dataset replaces its previous
	// schema and records entirely.
	//
	// On failure nothing is committed; the reason is recorded on the
	// raw-file artifact when opts.RawFileID is set, and the returned error
	// is a *apperrors.IngestionError carrying the failed stage.
	Ingest(ctx context.Context, datasetID uuid.UUID, raw []byte, opts models.IngestOptions) (*models.IngestionResult, error)
}

type ingestionService struct {
	db          *database.DB
	datasetRepo repositories.DatasetRepository
	rawFileRepo repositories.RawFileRepository
	schemaRepo  repositories.SchemaRepository
	recordRepo  repositories.RecordRepository
	ruleRepo    repositories.RuleRepository
	reportRepo  repositories.ReportRepository
	maxFileSize int64
	batchSize   int
	logger      *zap.Logger
}

// NewIngestionService creates a new IngestionService.
// maxFileSize bounds accepted input in bytes (0 = unbounded); batchSize
// is the bulk-insert chunk size for record materialization.
func NewIngestionService(
	db *database.DB,
	datasetRepo repositories.DatasetRepository,
	rawFileRepo repositories.RawFileRepository,
	schemaRepo repositories.SchemaRepository,
	recordRepo repositories.RecordRepository,
	ruleRepo repositories.RuleRepository,
	reportRepo repositories.ReportRepository,
	maxFileSize int64,
	batchSize int,
	logger *zap.Logger,
) IngestionService {
	return &ingestionService{
		db:          db,
		datasetRepo: datasetRepo,
		rawFileRepo: rawFileRepo,
		schemaRepo:  schemaRepo,
		recordRepo:  recordRepo,
		ruleRepo:    ruleRepo,
		reportRepo:  reportRepo,
		maxFileSize: maxFileSize,
		batchSize:   batchSize,
		logger:      logger.Named("ingestion-service"),
	}
}

var _ IngestionService = (*ingestionService)(nil)

func (s *ingestionService) Ingest(ctx context.Context, datasetID uuid.UUID, raw []byte, opts models.IngestOptions) (*models.IngestionResult, error) {
	var result *models.IngestionResult
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		var runErr error
		result, runErr = s.run(ctx, datasetID, raw, opts)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// run drives the pipeline state machine. The connection scope is already
// on ctx, so repository calls before the commit phase and the best-effort
// failure recording all share one connection.
func (s *ingestionService) run(ctx context.Context, datasetID uuid.UUID, raw []byte, opts models.IngestOptions) (*models.IngestionResult, error) {
	state := models.IngestionStatePending

	s.logger.Info("starting ingestion",
		zap.String("dataset_id", datasetID.String()),
		zap.String("filename", opts.Filename),
		zap.Int("file_size", len(raw)))

	if s.maxFileSize > 0 && int64(len(raw)) > s.maxFileSize {
		err := fmt.Errorf("%w: %d bytes, limit %d", apperrors.ErrFileTooLarge, len(raw), s.maxFileSize)
		return nil, s.fail(ctx, &state, opts.RawFileID, "input rejected", err)
	}

	dataset, err := s.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to load dataset", err)
	}
	if dataset == nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to load dataset",
			fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrNotFound))
	}
	if !dataset.IsActive {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to load dataset",
			fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrDatasetInactive))
	}

	if err := s.advance(&state, models.IngestionStateDetecting, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}
	detection := sniff.Detect(raw)
	encoding, delimiter := detection.Encoding, detection.Delimiter
	if opts.Encoding != "" {
		encoding = opts.Encoding
	}
	if opts.Delimiter != "" {
		delimiter = opts.Delimiter
	}

	if err := s.advance(&state, models.IngestionStateParsing, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}
	table, err := sniff.ReadTable(sniff.DecodeBytes(raw, encoding), delimiter)
	if err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to parse file", err)
	}
	if len(table.Rows) == 0 {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to parse file", apperrors.ErrNoDataRows)
	}

	if err := s.advance(&state, models.IngestionStateInferring, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}
	types := infer.ColumnTypes(table)
	columns, stats := buildSchema(datasetID, table, types)

	if err := s.advance(&state, models.IngestionStateMaterializing, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}
	mat := materialize.Rows(table, types)
	records := buildRecords(datasetID, mat.Rows)

	if err := s.advance(&state, models.IngestionStateReporting, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}
	report := quality.BuildReport(datasetID, quality.Counts{
		TotalRows:     mat.TotalRows,
		ErrorRows:     mat.ErrorRows,
		DuplicateRows: mat.DuplicateRows,
	}, table.Columns, types, stats)

	if err := s.commit(ctx, datasetID, encoding, delimiter, columns, records, &report, opts); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "failed to commit results", err)
	}
	if err := s.advance(&state, models.IngestionStateCommitted, datasetID); err != nil {
		return nil, s.fail(ctx, &state, opts.RawFileID, "state machine error", err)
	}

	s.logger.Info("ingestion committed",
		zap.String("dataset_id", datasetID.String()),
		zap.Int64("total_rows", mat.TotalRows),
		zap.Int64("processed_rows", int64(len(records))),
		zap.Int64("error_rows", mat.ErrorRows),
		zap.Int64("duplicate_rows", mat.DuplicateRows),
		zap.Float64("quality_score", report.QualityScore()))

	return &models.IngestionResult{
		Success:       true,
		TotalRows:     mat.TotalRows,
		ProcessedRows: int64(len(records)),
		ErrorRows:     mat.ErrorRows,
		DuplicateRows: mat.DuplicateRows,
		Columns:       table.Columns,
		QualityScore:  report.QualityScore(),
	}, nil
}

// advance validates and applies one forward state transition.
func (s *ingestionService) advance(state *models.IngestionState, next models.IngestionState, datasetID uuid.UUID) error {
	if !state.CanTransitionTo(next) {
		return fmt.Errorf("invalid ingestion state transition: %s -> %s", *state, next)
	}
	s.logger.Debug("ingestion state transition",
		zap.String("dataset_id", datasetID.String()),
		zap.String("from", string(*state)),
		zap.String("to", string(next)))
	*state = next
	return nil
}

// fail moves the run into the FAILED state, records the reason on the
// raw-file artifact when one is linked, and wraps the cause with the
// stage that was active when it happened. The commit phase rolls back
// before this runs, so the recording lands outside the failed
// transaction.
func (s *ingestionService) fail(ctx context.Context, state *models.IngestionState, rawFileID *uuid.UUID, message string, cause error) error {
	stage := *state
	*state = models.IngestionStateFailed

	ingErr := apperrors.NewIngestionError(string(stage), message, cause)
	s.logger.Error("ingestion failed",
		zap.String("stage", string(stage)),
		zap.String("error", logging.TruncateString(logging.SanitizeError(ingErr), logging.MaxErrorLogLength)))

	if rawFileID != nil {
		reason := logging.TruncateString(logging.SanitizeError(ingErr), logging.MaxErrorLogLength)
		if recErr := s.rawFileRepo.RecordError(ctx, *rawFileID, reason); recErr != nil {
			s.logger.Warn("failed to record processing error on raw file",
				zap.String("raw_file_id", rawFileID.String()),
				zap.Error(recErr))
		}
	}
	return ingErr
}

// commit persists the run's outputs in one transaction. Repositories read
// the connection scope from ctx, so every call here runs on the
// transaction's connection.
func (s *ingestionService) commit(ctx context.Context, datasetID uuid.UUID, encoding, delimiter string, columns []*models.SchemaColumn, records []*models.Record, report *models.QualityReport, opts models.IngestOptions) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = s.schemaRepo.ReplaceForDataset(ctx, datasetID, columns); err != nil {
		return err
	}
	if err = s.recordRepo.DeleteByDataset(ctx, datasetID); err != nil {
		return err
	}
	if err = s.recordRepo.BulkInsert(ctx, records, s.batchSize); err != nil {
		return err
	}
	if len(opts.Rules) > 0 {
		if err = s.ruleRepo.ReplaceForDataset(ctx, datasetID, opts.Rules); err != nil {
			return err
		}
	}
	if err = s.datasetRepo.UpdateRowCount(ctx, datasetID, int64(len(records))); err != nil {
		return err
	}
	if err = s.reportRepo.Create(ctx, report); err != nil {
		return err
	}
	if opts.RawFileID != nil {
		if err = s.rawFileRepo.MarkProcessed(ctx, *opts.RawFileID, encoding, delimiter); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildSchema profiles every column and assembles the schema rows in
// column order.
func buildSchema(datasetID uuid.UUID, table *sniff.Table, types map[string]models.ColumnType) ([]*models.SchemaColumn, map[string]infer.ColumnStats) {
	columns := make([]*models.SchemaColumn, 0, len(table.Columns))
	stats := make(map[string]infer.ColumnStats, len(table.Columns))
	for i, name := range table.Columns {
		values := table.ColumnValues(name)
		st := infer.ComputeStats(values, types[name])
		stats[name] = st

		uniqueCount, nullCount := st.UniqueCount, st.NullCount
		columns = append(columns, &models.SchemaColumn{
			DatasetID:   datasetID,
			ColumnName:  name,
			ColumnType:  types[name],
			IsNullable:  infer.Nullable(values),
			ColumnOrder: i,
			MinValue:    st.Min,
			MaxValue:    st.Max,
			MeanValue:   st.Mean,
			StdValue:    st.Std,
			UniqueCount: &uniqueCount,
			NullCount:   &nullCount,
		})
	}
	return columns, stats
}

// buildRecords converts materialized rows into storable records. Values
// flatten to their plain Go forms; datetimes store as their canonical
// string form.
func buildRecords(datasetID uuid.UUID, rows []materialize.Row) []*models.Record {
	records := make([]*models.Record, 0, len(rows))
	for _, row := range rows {
		data := make(map[string]any, len(row.Data))
		for name, v := range row.Data {
			data[name] = v.Go()
		}
		records = append(records, &models.Record{
			DatasetID: datasetID,
			RowNumber: row.RowNumber,
			Data:      data,
			DataHash:  row.Hash,
		})
	}
	return records
}
