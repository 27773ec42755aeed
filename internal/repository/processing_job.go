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

	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

const jobsTable = "processing_jobs"

// ErrJobFinished is returned when finishing a job that already has an outcome.
var ErrJobFinished = errors.New("processing job already finished")

type ProcessingJobRepository interface {
	Start(ctx context.Context, documentID uuid.UUID, startedAt time.Time) (*entity.ProcessingJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, pages int, now time.Time) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string, pages int, now time.Time) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ProcessingJob, error)
}

type processingJobRepo struct {
	c   conn
	log *slog.Logger
}

func NewProcessingJobRepository(db dialect.ExecQuerier, dialectName string, log *slog.Logger) ProcessingJobRepository {
	return &processingJobRepo{c: newConn(db, dialectName), log: log}
}

func (r *processingJobRepo) Start(ctx context.Context, documentID uuid.UUID, startedAt time.Time) (*entity.ProcessingJob, error) {
	job := &entity.ProcessingJob{
		ID:         uuid.New(),
		DocumentID: documentID,
		StartedAt:  startedAt.UTC(),
	}
	ins := r.c.b.Insert(jobsTable).
		Columns("id", "document_id", "pages_processed", "started_at").
		Values(job.ID, job.DocumentID, 0, job.StartedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		r.log.Error("processing_job start failed", "document_id", documentID, "err", err)
		return nil, err
	}
	r.log.Debug("processing_job started", "job_id", job.ID, "document_id", documentID)
	return job, nil
}

func (r *processingJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, pages int, now time.Time) error {
	if err := r.finish(ctx, jobID, true, nil, pages, now); err != nil {
		r.log.Error("processing_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Debug("processing_job finished (OK)", "job_id", jobID, "pages", pages)
	return nil
}

func (r *processingJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string, pages int, now time.Time) error {
	if err := r.finish(ctx, jobID, false, &message, pages, now); err != nil {
		r.log.Error("processing_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("processing_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

// finish only touches jobs without a completion timestamp; finished jobs are immutable.
func (r *processingJobRepo) finish(ctx context.Context, jobID uuid.UUID, success bool, detail *string, pages int, now time.Time) error {
	now = now.UTC()
	var startedAt nullTime
	err := r.c.queryOne(ctx,
		r.c.b.Select("started_at").From(r.c.b.Table(jobsTable)).Where(entsql.EQ("id", jobID)),
		func(rows *entsql.Rows) error { return rows.Scan(&startedAt) })
	if err != nil {
		return err
	}
	upd := r.c.b.Update(jobsTable).
		Set("success", success).
		Set("error_detail", detail).
		Set("pages_processed", pages).
		Set("completed_at", now).
		Where(entsql.And(
			entsql.EQ("id", jobID),
			entsql.IsNull("completed_at"),
		))
	if startedAt.Valid {
		upd.Set("processing_seconds", now.Sub(startedAt.Time).Seconds())
	}
	n, err := r.c.exec(ctx, upd)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobFinished
	}
	return nil
}

func (r *processingJobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ProcessingJob, error) {
	q := r.c.b.Select("id", "document_id", "success", "error_detail", "pages_processed",
		"processing_seconds", "started_at", "completed_at").
		From(r.c.b.Table(jobsTable)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("started_at")
	var out []entity.ProcessingJob
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		var (
			j         entity.ProcessingJob
			success   sql.NullBool
			detail    sql.NullString
			pages     sql.NullInt64
			seconds   sql.NullFloat64
			started   nullTime
			completed nullTime
		)
		if err := rows.Scan(&j.ID, &j.DocumentID, &success, &detail, &pages, &seconds, &started, &completed); err != nil {
			return err
		}
		if success.Valid {
			v := success.Bool
			j.Success = &v
		}
		j.ErrorDetail = stringPtr(detail)
		j.PagesProcessed = int(pages.Int64)
		j.ProcessingSeconds = float64Ptr(seconds)
		j.StartedAt = started.Time
		j.CompletedAt = completed.ptr()
		out = append(out, j)
		return nil
	})
	if err != nil {
		r.log.Error("processing_job listing failed", "document_id", documentID, "err", err)
		return nil, err
	}
	return out, nil
}
