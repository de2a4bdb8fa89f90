package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is a named collection of ingested rows sharing one schema and
// one quality report lineage. TotalRows is maintained by ingestion.
type Dataset struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	VehicleModel        string     `json:"vehicle_model,omitempty"`
	MeasurementDate     *time.Time `json:"measurement_date,omitempty"`
	MeasurementLocation string     `json:"measurement_location,omitempty"`
	TotalRows           int64      `json:"total_rows"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DatasetSearchQuery filters and paginates dataset listings. Only active
// datasets are searched. Query matches name or description and
// VehicleModel matches vehicle_model, both case-insensitive contains;
// From/To bound the creation date.
type DatasetSearchQuery struct {
	Query        string
	VehicleModel string
	From         *time.Time
	To           *time.Time
	Offset       int
	Limit        int
}

// DatasetSearchResult is one page of a dataset search.
type DatasetSearchResult struct {
	Datasets   []*Dataset `json:"datasets"`
	TotalCount int64      `json:"total_count"`
}

// RawFile records the provenance of one uploaded file: original name,
// size, the encoding and delimiter detection settled on, and the outcome
// of processing it. The byte content itself is not stored here.
type RawFile struct {
	ID               uuid.UUID `json:"id"`
	DatasetID        uuid.UUID `json:"dataset_id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	Encoding         string    `json:"encoding"`
	Delimiter        string    `json:"delimiter"`
	Processed        bool      `json:"processed"`
	ProcessingError  string    `json:"processing_error,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
