package models

import "github.com/google/uuid"

// ============================================================================
// Ingestion States
// ============================================================================

// IngestionState represents where an ingestion run is in its lifecycle.
// Runs advance strictly forward; FAILED is reachable from any
// non-terminal state.
type IngestionState string

const (
	IngestionStatePending       IngestionState = "PENDING"
	IngestionStateDetecting     IngestionState = "DETECTING"
	IngestionStateParsing       IngestionState = "PARSING"
	IngestionStateInferring     IngestionState = "INFERRING_SCHEMA"
	IngestionStateMaterializing IngestionState = "MATERIALIZING_ROWS"
	IngestionStateReporting     IngestionState = "REPORTING"
	IngestionStateCommitted     IngestionState = "COMMITTED"
	IngestionStateFailed        IngestionState = "FAILED"
)

// ValidIngestionStates contains all valid ingestion state values.
var ValidIngestionStates = []IngestionState{
	IngestionStatePending,
	IngestionStateDetecting,
	IngestionStateParsing,
	IngestionStateInferring,
	IngestionStateMaterializing,
	IngestionStateReporting,
	IngestionStateCommitted,
	IngestionStateFailed,
}

// IsValidIngestionState checks if the given state is valid.
func IsValidIngestionState(s IngestionState) bool {
	for _, v := range ValidIngestionStates {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the state is terminal (committed or failed).
func (s IngestionState) IsTerminal() bool {
	return s == IngestionStateCommitted || s == IngestionStateFailed
}

// CanTransitionTo returns true if transitioning from this state to the
// target is valid. Any non-terminal state may fail.
func (s IngestionState) CanTransitionTo(target IngestionState) bool {
	if target == IngestionStateFailed {
		return !s.IsTerminal()
	}
	switch s {
	case IngestionStatePending:
		return target == IngestionStateDetecting
	case IngestionStateDetecting:
		return target == IngestionStateParsing
	case IngestionStateParsing:
		return target == IngestionStateInferring
	case IngestionStateInferring:
		return target == IngestionStateMaterializing
	case IngestionStateMaterializing:
		return target == IngestionStateReporting
	case IngestionStateReporting:
		return target == IngestionStateCommitted
	default:
		return false
	}
}

// ============================================================================
// Ingestion Input / Result
// ============================================================================

// IngestOptions carries per-run inputs besides the file bytes. Encoding
// and Delimiter, when set, override detection. RawFileID links the run to
// an uploaded-file artifact so the outcome can be recorded on it. Rules,
// when non-empty, replace the dataset's stored validation rules inside
// the ingestion transaction; an empty slice leaves stored rules alone.
type IngestOptions struct {
	Filename  string
	Encoding  string
	Delimiter string
	RawFileID *uuid.UUID
	Rules     []*ValidationRule
}

// IngestionResult is the summary handed back to the caller after a run.
type IngestionResult struct {
	Success       bool     `json:"success"`
	TotalRows     int64    `json:"total_rows"`
	ProcessedRows int64    `json:"processed_rows"`
	ErrorRows     int64    `json:"error_rows"`
	DuplicateRows int64    `json:"duplicate_rows"`
	Columns       []string `json:"columns"`
	QualityScore  float64  `json:"quality_score"`
}
