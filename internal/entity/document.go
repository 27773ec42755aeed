package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// Document represents one source artifact and the status of its latest ingestion attempt.
type Document struct {
	ID           uuid.UUID                `json:"id"`
	Filename     string                   `json:"filename"`
	FilePath     string                   `json:"file_path"`
	Bucket       string                   `json:"bucket,omitempty"`
	FileSize     *int64                   `json:"file_size,omitempty"`
	FileHash     *string                  `json:"file_hash,omitempty"`
	BatchID      *string                  `json:"batch_id,omitempty"`
	Status       constants.DocumentStatus `json:"status"`
	ErrorMessage *string                  `json:"error_message,omitempty"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}
