package constants

// DocumentStatus is the lifecycle status stored on document rows.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// AllDocumentStatuses lists statuses in lifecycle order; used by status reports.
var AllDocumentStatuses = []DocumentStatus{
	DocumentPending,
	DocumentProcessing,
	DocumentCompleted,
	DocumentFailed,
}

// Outcome is the per-document result bucket of a batch run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Skip reasons.
const (
	ReasonAlreadyProcessed = "already processed"
	ReasonBatchCancelled   = "batch cancelled"
)

// ExtractionMethod is recorded on every extracted field row.
const ExtractionMethod = "pattern_matching"
