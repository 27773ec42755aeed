package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractedField records one extracted value for a document.
type ExtractedField struct {
	ID               uuid.UUID `json:"id"`
	DocumentID       uuid.UUID `json:"document_id"`
	FieldName        string    `json:"field_name"`
	FieldValue       string    `json:"field_value"`
	ExtractionMethod string    `json:"extraction_method"`
	Confidence       *float64  `json:"confidence,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
