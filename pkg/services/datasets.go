package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/repositories"
)

const (
	// DefaultRecordsPerPage is the record page size when the query does
	// not set one.
	DefaultRecordsPerPage = 100
	// DefaultSampleLimit is the sample-export row cap when none is given.
	DefaultSampleLimit = 100
	// MaxSearchLimit caps the dataset search page size.
	MaxSearchLimit = 200
)

// DatasetService provides catalog operations over ingested datasets.
type DatasetService interface {
	// Create registers a new dataset. Name is required.
	Create(ctx context.Context, dataset *models.Dataset) error

	// Get returns the dataset. Returns apperrors.ErrNotFound when it does
	// not exist and apperrors.ErrDatasetInactive when it was deactivated.
	Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error)

	// Deactivate soft-deletes the dataset: it disappears from search and
	// data reads but its rows remain stored.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// Search returns active datasets matching the query, newest first.
	Search(ctx context.Context, q models.DatasetSearchQuery) (*models.DatasetSearchResult, error)

	// QueryRecords returns one page of record data with the query's
	// filters applied before pagination.
	QueryRecords(ctx context.Context, datasetID uuid.UUID, q models.RecordQuery) (*models.RecordPage, error)

	// GetSchema returns the dataset's schema columns in column order.
	GetSchema(ctx context.Context, datasetID uuid.UUID) ([]*models.SchemaColumn, error)

	// ExportSchemaCSV writes the dataset's schema as CSV.
	ExportSchemaCSV(ctx context.Context, datasetID uuid.UUID, w io.Writer) error

	// ExportSampleCSV writes up to limit records as CSV in row-number
	// order with schema-ordered columns. limit <= 0 uses
	// DefaultSampleLimit.
	ExportSampleCSV(ctx context.Context, datasetID uuid.UUID, limit int, w io.Writer) error

	// LatestQualityReport returns the dataset's most recent quality
	// report. Returns apperrors.ErrNotFound when no report exists.
	LatestQualityReport(ctx context.Context, datasetID uuid.UUID) (*models.QualityReport, error)
}

type datasetService struct {
	db          *database.DB
	datasetRepo repositories.DatasetRepository
	schemaRepo  repositories.SchemaRepository
	recordRepo  repositories.RecordRepository
	reportRepo  repositories.ReportRepository
	logger      *zap.Logger
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(
	db *database.DB,
	datasetRepo repositories.DatasetRepository,
	schemaRepo repositories.SchemaRepository,
	recordRepo repositories.RecordRepository,
	reportRepo repositories.ReportRepository,
	logger *zap.Logger,
) DatasetService {
	return &datasetService{
		db:          db,
		datasetRepo: datasetRepo,
		schemaRepo:  schemaRepo,
		recordRepo:  recordRepo,
		reportRepo:  reportRepo,
		logger:      logger.Named("dataset-service"),
	}
}

var _ DatasetService = (*datasetService)(nil)

func (s *datasetService) Create(ctx context.Context, dataset *models.Dataset) error {
	if strings.TrimSpace(dataset.Name) == "" {
		return fmt.Errorf("dataset name is required")
	}
	return s.db.WithScope(ctx, func(ctx context.Context) error {
		return s.datasetRepo.Create(ctx, dataset)
	})
}

func (s *datasetService) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	var dataset *models.Dataset
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		var err error
		dataset, err = s.getActive(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

func (s *datasetService) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		return s.datasetRepo.SetActive(ctx, id, false)
	})
	if err != nil {
		return err
	}
	s.logger.Info("dataset deactivated", zap.String("dataset_id", id.String()))
	return nil
}

func (s *datasetService) Search(ctx context.Context, q models.DatasetSearchQuery) (*models.DatasetSearchResult, error) {
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
	var result *models.DatasetSearchResult
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.datasetRepo.Search(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *datasetService) QueryRecords(ctx context.Context, datasetID uuid.UUID, q models.RecordQuery) (*models.RecordPage, error) {
	for _, f := range q.Filters {
		if !models.IsValidFilterOp(f.Op) {
			return nil, fmt.Errorf("invalid filter operator: %s", f.Op)
		}
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultRecordsPerPage
	}

	var records []*models.Record
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		if _, err := s.getActive(ctx, datasetID); err != nil {
			return err
		}
		var err error
		records, err = s.recordRepo.ListByDataset(ctx, datasetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	data := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if matchesFilters(r.Data, q.Filters) {
			data = append(data, r.Data)
		}
	}

	total := len(data)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &models.RecordPage{
		Data:         data[start:end],
		TotalRecords: int64(total),
		Page:         page,
		PerPage:      perPage,
		HasNext:      page*perPage < total,
	}, nil
}

func (s *datasetService) GetSchema(ctx context.Context, datasetID uuid.UUID) ([]*models.SchemaColumn, error) {
	var columns []*models.SchemaColumn
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		if _, err := s.getActive(ctx, datasetID); err != nil {
			return err
		}
		var err error
		columns, err = s.schemaRepo.GetByDataset(ctx, datasetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *datasetService) ExportSchemaCSV(ctx context.Context, datasetID uuid.UUID, w io.Writer) error {
	columns, err := s.GetSchema(ctx, datasetID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"column_name", "column_type", "is_nullable", "min_value", "max_value", "unique_count"}); err != nil {
		return fmt.Errorf("failed to write schema csv: %w", err)
	}
	for _, col := range columns {
		row := []string{
			col.ColumnName,
			string(col.ColumnType),
			strconv.FormatBool(col.IsNullable),
			formatFloatPtr(col.MinValue),
			formatFloatPtr(col.MaxValue),
			formatInt64Ptr(col.UniqueCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write schema csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write schema csv: %w", err)
	}
	return nil
}

func (s *datasetService) ExportSampleCSV(ctx context.Context, datasetID uuid.UUID, limit int, w io.Writer) error {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	var (
		columns []*models.SchemaColumn
		records []*models.Record
	)
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		if _, err := s.getActive(ctx, datasetID); err != nil {
			return err
		}
		var err error
		if columns, err = s.schemaRepo.GetByDataset(ctx, datasetID); err != nil {
			return err
		}
		records, err = s.recordRepo.ListByDataset(ctx, datasetID)
		return err
	})
	if err != nil {
		return err
	}
	if len(records) > limit {
		records = records[:limit]
	}

	header := make([]string, 0, len(columns)+1)
	header = append(header, "row_number")
	for _, col := range columns {
		header = append(header, col.ColumnName)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write sample csv: %w", err)
	}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatInt(rec.RowNumber, 10))
		for _, col := range columns {
			v := rec.Data[col.ColumnName]
			if v == nil {
				row = append(row, "")
			} else {
				row = append(row, stringify(v))
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write sample csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write sample csv: %w", err)
	}
	return nil
}

func (s *datasetService) LatestQualityReport(ctx context.Context, datasetID uuid.UUID) (*models.QualityReport, error) {
	var report *models.QualityReport
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		if _, err := s.getActive(ctx, datasetID); err != nil {
			return err
		}
		var err error
		report, err = s.reportRepo.GetLatestByDataset(ctx, datasetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("quality report for dataset %s: %w", datasetID, apperrors.ErrNotFound)
	}
	return report, nil
}

// getActive loads the dataset and enforces catalog visibility: reads go
// against active datasets only.
func (s *datasetService) getActive(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	dataset, err := s.datasetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, fmt.Errorf("dataset %s: %w", id, apperrors.ErrNotFound)
	}
	if !dataset.IsActive {
		return nil, fmt.Errorf("dataset %s: %w", id, apperrors.ErrDatasetInactive)
	}
	return dataset, nil
}

// matchesFilters applies every filter to one record's data; filters AND
// together. A filter with an empty value constrains nothing.
func matchesFilters(data map[string]any, filters []models.RecordFilter) bool {
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		if !filterMatches(data[f.Column], f) {
			return false
		}
	}
	return true
}

// filterMatches reports whether one stored value satisfies a filter.
// eq is strict equality on string values (a number or boolean never
// equals its textual form), contains is case-insensitive over the
// value's string form, gte/lte compare numerically. Null never matches,
// and a non-numeric bound makes gte/lte match nothing.
func filterMatches(raw any, f models.RecordFilter) bool {
	if raw == nil {
		return false
	}
	switch f.Op {
	case models.FilterOpEq:
		s, ok := raw.(string)
		return ok && s == f.Value
	case models.FilterOpContains:
		return strings.Contains(strings.ToLower(stringify(raw)), strings.ToLower(f.Value))
	case models.FilterOpGte:
		v, ok := numeric(raw)
		if !ok {
			return false
		}
		bound, err := strconv.ParseFloat(f.Value, 64)
		return err == nil && v >= bound
	case models.FilterOpLte:
		v, ok := numeric(raw)
		if !ok {
			return false
		}
		bound, err := strconv.ParseFloat(f.Value, 64)
		return err == nil && v <= bound
	default:
		return false
	}
}

// stringify renders a stored record value for display and matching.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// numeric coerces a stored record value to float64 for range filters.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatInt64Ptr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
