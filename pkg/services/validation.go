package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
	"github.com/rlake-data/ingest-engine/pkg/database"
	"github.com/rlake-data/ingest-engine/pkg/models"
	"github.com/rlake-data/ingest-engine/pkg/repositories"
	"github.com/rlake-data/ingest-engine/pkg/rules"
)

// ValidationService evaluates a dataset's stored validation rules
// against its materialized records.
type ValidationService interface {
	// ValidateDataset runs every active rule against every stored record
	// and returns the aggregate outcome with per-record failure lists.
	ValidateDataset(ctx context.Context, datasetID uuid.UUID) (*ValidationSummary, error)
}

// ValidationSummary aggregates one validation pass over a dataset.
type ValidationSummary struct {
	TotalRecords   int64            `json:"total_records"`
	ValidRecords   int64            `json:"valid_records"`
	InvalidRecords int64            `json:"invalid_records"`
	Failures       []RecordFailures `json:"failures,omitempty"`
}

// RecordFailures lists the rule failures for one record.
type RecordFailures struct {
	RecordID  uuid.UUID `json:"record_id"`
	RowNumber int64     `json:"row_number"`
	Errors    []string  `json:"errors"`
}

type validationService struct {
	db          *database.DB
	datasetRepo repositories.DatasetRepository
	recordRepo  repositories.RecordRepository
	ruleRepo    repositories.RuleRepository
	logger      *zap.Logger
}

// NewValidationService creates a new ValidationService.
func NewValidationService(
	db *database.DB,
	datasetRepo repositories.DatasetRepository,
	recordRepo repositories.RecordRepository,
	ruleRepo repositories.RuleRepository,
	logger *zap.Logger,
) ValidationService {
	return &validationService{
		db:          db,
		datasetRepo: datasetRepo,
		recordRepo:  recordRepo,
		ruleRepo:    ruleRepo,
		logger:      logger.Named("validation-service"),
	}
}

var _ ValidationService = (*validationService)(nil)

func (s *validationService) ValidateDataset(ctx context.Context, datasetID uuid.UUID) (*ValidationSummary, error) {
	var (
		records []*models.Record
		active  []*models.ValidationRule
	)
	err := s.db.WithScope(ctx, func(ctx context.Context) error {
		dataset, err := s.datasetRepo.GetByID(ctx, datasetID)
		if err != nil {
			return err
		}
		if dataset == nil {
			return fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrNotFound)
		}
		if !dataset.IsActive {
			return fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrDatasetInactive)
		}

		if records, err = s.recordRepo.ListByDataset(ctx, datasetID); err != nil {
			return err
		}
		active, err = s.ruleRepo.ListByDataset(ctx, datasetID, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	rowValues := make([]map[string]models.Value, len(records))
	for i, r := range records {
		values := make(map[string]models.Value, len(r.Data))
		for name, raw := range r.Data {
			values[name] = models.ValueFromAny(raw)
		}
		rowValues[i] = values
	}
	ruleSet := make([]models.ValidationRule, len(active))
	for i, r := range active {
		ruleSet[i] = *r
	}

	summary := &ValidationSummary{TotalRecords: int64(len(records))}
	for i, res := range rules.ValidateRecords(rowValues, ruleSet) {
		if res.Passed {
			summary.ValidRecords++
			continue
		}
		summary.InvalidRecords++
		summary.Failures = append(summary.Failures, RecordFailures{
			RecordID:  records[i].ID,
			RowNumber: records[i].RowNumber,
			Errors:    res.Failures,
		})
	}

	s.logger.Info("dataset validation finished",
		zap.String("dataset_id", datasetID.String()),
		zap.Int64("total_records", summary.TotalRecords),
		zap.Int64("invalid_records", summary.InvalidRecords),
		zap.Int("active_rules", len(ruleSet)))

	return summary, nil
}
