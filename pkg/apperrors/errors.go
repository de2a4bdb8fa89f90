package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyFile       = errors.New("file contains no data")
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrNoColumns       = errors.New("file contains no columns")
	ErrNoDataRows      = errors.New("file contains a header but no data rows")
	ErrDatasetInactive = errors.New("dataset is inactive")
	ErrInvalidRuleType = errors.New("invalid validation rule type")
)

// IngestionError is the single structured failure surfaced by an
// ingestion run. Stage names the pipeline stage that failed; the
// underlying cause is wrapped and reachable via errors.Is/As.
type IngestionError struct {
	Stage   string
	Message string
	Err     error
}

// NewIngestionError builds an IngestionError for the given stage.
func NewIngestionError(stage, message string, err error) *IngestionError {
	return &IngestionError{Stage: stage, Message: message, Err: err}
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingestion failed at %s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("ingestion failed at %s: %s", e.Stage, e.Message)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
