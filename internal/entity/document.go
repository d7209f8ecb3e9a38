package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
)

// DocumentRecord is a ledger row for data transfer between layers.
type DocumentRecord struct {
	ID              uuid.UUID           `json:"id"`
	Filename        string              `json:"filename"`
	SourcePath      string              `json:"source_path"`
	Kind            string              `json:"kind"`
	Status          constants.JobStatus `json:"status"`
	Pages           int                 `json:"pages"`
	TextOutputPath  *string             `json:"text_output_path,omitempty"`
	TableOutputPath *string             `json:"table_output_path,omitempty"`
	ErrorMessage    *string             `json:"error_message,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	FinishedAt      *time.Time          `json:"finished_at,omitempty"`
}
