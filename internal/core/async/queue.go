package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
)

// Job is one OCR result handed to the worker pool.
type Job struct {
	Source      ingest.Source
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
