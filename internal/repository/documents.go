package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

const documentsTable = "documents"

var documentColumns = []string{
	"id", "filename", "file_path", "bucket", "file_size", "file_hash", "batch_id",
	"status", "error_message", "started_at", "completed_at", "created_at", "updated_at",
}

// Attempt describes the source artifact of one ingestion attempt.
type Attempt struct {
	Filename string
	FilePath string
	Bucket   string
	FileSize *int64
	FileHash *string
	BatchID  *string
}

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	FindCompletedByFilename(ctx context.Context, filename string) (*entity.Document, error)
	BeginAttempt(ctx context.Context, a Attempt, now time.Time) (*entity.Document, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string, now time.Time) error
	ListByStatus(ctx context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error)
	CountByStatus(ctx context.Context) (map[constants.DocumentStatus]int, error)
}

type documentRepo struct {
	c      conn
	logger *slog.Logger
}

func NewDocumentRepository(db dialect.ExecQuerier, dialectName string, logger *slog.Logger) DocumentRepository {
	return &documentRepo{c: newConn(db, dialectName), logger: logger}
}

func (r *documentRepo) selectDocuments() *entsql.Selector {
	return r.c.b.Select(documentColumns...).From(r.c.b.Table(documentsTable))
}

func scanDocument(rows *entsql.Rows) (entity.Document, error) {
	var (
		d                   entity.Document
		status              string
		size                sql.NullInt64
		hash, batch, errMsg sql.NullString
		started, completed  nullTime
		created, updated    nullTime
	)
	if err := rows.Scan(&d.ID, &d.Filename, &d.FilePath, &d.Bucket, &size, &hash, &batch,
		&status, &errMsg, &started, &completed, &created, &updated); err != nil {
		return d, err
	}
	d.Status = constants.DocumentStatus(status)
	d.FileSize = int64Ptr(size)
	d.FileHash = stringPtr(hash)
	d.BatchID = stringPtr(batch)
	d.ErrorMessage = stringPtr(errMsg)
	d.StartedAt = started.ptr()
	d.CompletedAt = completed.ptr()
	d.CreatedAt = created.Time
	d.UpdatedAt = updated.Time
	return d, nil
}

func (r *documentRepo) one(ctx context.Context, q entsql.Querier) (*entity.Document, error) {
	var out entity.Document
	err := r.c.queryOne(ctx, q, func(rows *entsql.Rows) error {
		d, err := scanDocument(rows)
		out = d
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, err := r.one(ctx, r.selectDocuments().Where(entsql.EQ("id", id)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.Error("document lookup failed", "document_id", id, "error", err)
	}
	return doc, err
}

func (r *documentRepo) FindCompletedByFilename(ctx context.Context, filename string) (*entity.Document, error) {
	q := r.selectDocuments().
		Where(entsql.And(
			entsql.EQ("filename", filename),
			entsql.EQ("status", string(constants.DocumentCompleted)),
		)).
		OrderBy(entsql.Desc("completed_at")).
		Limit(1)
	return r.one(ctx, q)
}

// BeginAttempt reuses the latest non-completed document for the filename, or
// creates one, and moves it to processing.
func (r *documentRepo) BeginAttempt(ctx context.Context, a Attempt, now time.Time) (*entity.Document, error) {
	now = now.UTC()
	existing, err := r.one(ctx, r.selectDocuments().
		Where(entsql.And(
			entsql.EQ("filename", a.Filename),
			entsql.NEQ("status", string(constants.DocumentCompleted)),
		)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1))
	switch {
	case err == nil:
		upd := r.c.b.Update(documentsTable).
			Set("status", string(constants.DocumentProcessing)).
			Set("file_path", a.FilePath).
			Set("bucket", a.Bucket).
			Set("file_size", a.FileSize).
			Set("file_hash", a.FileHash).
			Set("batch_id", a.BatchID).
			SetNull("error_message").
			SetNull("completed_at").
			Set("started_at", now).
			Set("updated_at", now).
			Where(entsql.EQ("id", existing.ID))
		if _, err := r.c.exec(ctx, upd); err != nil {
			r.logger.Error("document restart failed", "document_id", existing.ID, "error", err)
			return nil, err
		}
		r.logger.Debug("document reused", "document_id", existing.ID, "filename", a.Filename, "previous_status", existing.Status)
		return r.GetByID(ctx, existing.ID)
	case errors.Is(err, ErrNotFound):
	default:
		r.logger.Error("document lookup failed", "filename", a.Filename, "error", err)
		return nil, err
	}

	id := uuid.New()
	ins := r.c.b.Insert(documentsTable).
		Columns("id", "filename", "file_path", "bucket", "file_size", "file_hash", "batch_id",
			"status", "started_at", "created_at", "updated_at").
		Values(id, a.Filename, a.FilePath, a.Bucket, a.FileSize, a.FileHash, a.BatchID,
			string(constants.DocumentProcessing), now, now, now)
	if _, err := r.c.exec(ctx, ins); err != nil {
		r.logger.Error("document create failed", "filename", a.Filename, "error", err)
		return nil, err
	}
	r.logger.Debug("document created", "document_id", id, "filename", a.Filename)
	return r.GetByID(ctx, id)
}

func (r *documentRepo) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	now = now.UTC()
	upd := r.c.b.Update(documentsTable).
		Set("status", string(constants.DocumentCompleted)).
		SetNull("error_message").
		Set("completed_at", now).
		Set("updated_at", now).
		Where(entsql.EQ("id", id))
	return r.setStatus(ctx, id, upd)
}

func (r *documentRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string, now time.Time) error {
	now = now.UTC()
	upd := r.c.b.Update(documentsTable).
		Set("status", string(constants.DocumentFailed)).
		Set("error_message", message).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(entsql.EQ("id", id))
	return r.setStatus(ctx, id, upd)
}

func (r *documentRepo) setStatus(ctx context.Context, id uuid.UUID, upd *entsql.UpdateBuilder) error {
	n, err := r.c.exec(ctx, upd)
	if err != nil {
		r.logger.Error("document status update failed", "document_id", id, "error", err)
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns documents with the given status, oldest first. limit <= 0 means no limit.
func (r *documentRepo) ListByStatus(ctx context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error) {
	q := r.selectDocuments().
		Where(entsql.EQ("status", string(status))).
		OrderBy("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []entity.Document
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		d, err := scanDocument(rows)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		r.logger.Error("document listing failed", "status", status, "error", err)
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) CountByStatus(ctx context.Context) (map[constants.DocumentStatus]int, error) {
	q := r.c.b.Select("status", entsql.Count("*")).
		From(r.c.b.Table(documentsTable)).
		GroupBy("status")
	out := make(map[constants.DocumentStatus]int, len(constants.AllDocumentStatuses))
	for _, s := range constants.AllDocumentStatuses {
		out[s] = 0
	}
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		out[constants.DocumentStatus(status)] = int(n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
