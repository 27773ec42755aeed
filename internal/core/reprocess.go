package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
	"github.com/joseph-ayodele/invoice-ledger/internal/storage"
)

// SourceResolver finds the artifact a stored document came from.
type SourceResolver func(ctx context.Context, doc entity.Document) (ingest.Source, error)

// StoredSources resolves a document to its local file when that still
// exists, otherwise to the object at its path in its bucket.
func StoredSources(objects storage.Store) SourceResolver {
	return func(_ context.Context, doc entity.Document) (ingest.Source, error) {
		if doc.FilePath == "" {
			return nil, fmt.Errorf("document %s has no file path", doc.ID)
		}
		if fi, err := os.Stat(doc.FilePath); err == nil && !fi.IsDir() {
			return ingest.FileSource{Path: doc.FilePath}, nil
		}
		if objects != nil && doc.Bucket != "" {
			return ingest.StorageSource{Store: objects, BucketName: doc.Bucket, Key: doc.FilePath}, nil
		}
		return ingest.FileSource{Path: doc.FilePath}, nil
	}
}

// Reprocessor re-runs the controller over documents already in the store.
type Reprocessor struct {
	proc    *Processor
	resolve SourceResolver
	logger  *slog.Logger
}

func NewReprocessor(proc *Processor, resolve SourceResolver, logger *slog.Logger) *Reprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	if resolve == nil {
		resolve = StoredSources(nil)
	}
	return &Reprocessor{proc: proc, resolve: resolve, logger: logger}
}

// ReprocessFailed re-runs every document currently marked failed.
func (r *Reprocessor) ReprocessFailed(ctx context.Context) (*Report, error) {
	docs, err := r.proc.store.Repos().Documents.ListByStatus(ctx, constants.DocumentFailed, 0)
	if err != nil {
		return nil, fmt.Errorf("list failed documents: %w", err)
	}
	r.logger.Info("reprocessing failed documents", "documents", len(docs))
	return r.proc.ProcessMany(ctx, r.sources(ctx, docs)), nil
}

// ReprocessDocument re-runs one document by ID.
func (r *Reprocessor) ReprocessDocument(ctx context.Context, id uuid.UUID) (*Report, error) {
	doc, err := r.proc.store.Repos().Documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	r.logger.Info("reprocessing document", "document_id", id, "status", doc.Status)
	return r.proc.ProcessMany(ctx, r.sources(ctx, []entity.Document{*doc})), nil
}

// sources keeps unresolvable documents in the batch as failing sources.
func (r *Reprocessor) sources(ctx context.Context, docs []entity.Document) []ingest.Source {
	out := make([]ingest.Source, 0, len(docs))
	for _, d := range docs {
		src, err := r.resolve(ctx, d)
		if err != nil {
			r.logger.Warn("cannot resolve document source", "document_id", d.ID, "error", err)
			src = ingest.FailedSource{Filename: d.Filename, Err: err}
		}
		out = append(out, src)
	}
	return out
}
