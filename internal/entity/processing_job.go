package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingJob is the audit record of one extraction attempt against a document.
// Success is nil while the attempt is running.
type ProcessingJob struct {
	ID                uuid.UUID  `json:"id"`
	DocumentID        uuid.UUID  `json:"document_id"`
	Success           *bool      `json:"success,omitempty"`
	ErrorDetail       *string    `json:"error_detail,omitempty"`
	PagesProcessed    int        `json:"pages_processed"`
	ProcessingSeconds *float64   `json:"processing_seconds,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}
