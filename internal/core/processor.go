package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/extract"
	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
	"github.com/joseph-ayodele/invoice-ledger/internal/repository"
)

// Store is what the processor needs from the durable store.
type Store interface {
	repository.Transactor
	Repos() *repository.Repos
}

// Stage is where a failed document stopped.
type Stage string

const (
	StageLoad    Stage = "load"
	StageDecode  Stage = "decode"
	StageExtract Stage = "extract"
	StagePersist Stage = "persist"
)

// Result is the outcome of one document. Exactly one Result is produced per
// input, whatever happens to it.
type Result struct {
	Outcome       constants.Outcome   `json:"outcome"`
	Filename      string              `json:"filename"`
	Location      string              `json:"location,omitempty"`
	DocumentID    uuid.UUID           `json:"document_id,omitempty"`
	InvoiceID     uuid.UUID           `json:"invoice_id,omitempty"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	Total         decimal.NullDecimal `json:"total,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	SupplierName  string              `json:"supplier_name,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	Relinked      bool                `json:"relinked,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	Error         string              `json:"error,omitempty"`
	Stage         Stage               `json:"stage,omitempty"`
	// State is the furthest extraction state reached by a failed document.
	State    extract.State `json:"state,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Processor is the ingestion controller: it runs the extraction engine over
// OCR results and persists each one as its own unit of work.
type Processor struct {
	store  Store
	engine *extract.Engine
	logger *slog.Logger
	now    func() time.Time
	bucket string
}

type Option func(*Processor)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithDefaultBucket is recorded on documents whose source has no bucket.
func WithDefaultBucket(bucket string) Option {
	return func(p *Processor) { p.bucket = bucket }
}

func NewProcessor(store Store, engine *extract.Engine, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = extract.NewEngine(extract.WithLogger(logger))
	}
	p := &Processor{
		store:  store,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// attemptFailure carries what is known about a failed attempt to the audit write.
type attemptFailure struct {
	stage Stage
	err   error
	pages int
}

func (f *attemptFailure) Error() string { return f.err.Error() }
func (f *attemptFailure) Unwrap() error { return f.err }

// ProcessOne ingests a single OCR result. Every write of the attempt goes
// through tx as one unit of work. When the attempt fails, its writes are
// rolled back and a second unit of work records the failed document and job,
// so the audit trail survives without partial invoice or party rows.
//
// ctx bounds loading the source and the already-processed check only. Once
// the attempt's unit of work begins it is not interrupted, and a failure is
// recorded even when ctx has expired.
func (p *Processor) ProcessOne(ctx context.Context, tx repository.Transactor, src ingest.Source) Result {
	start := p.now()
	res := Result{Filename: src.Name(), Location: src.Location()}
	logger := p.logger.With("file", src.Location())
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		logger = logger.With("request_id", rid)
	}

	data, err := src.Load(ctx)
	if err != nil {
		return p.fail(ctx, tx, res, p.attempt(ctx, res.Filename, src, nil), &attemptFailure{stage: StageLoad, err: err}, start, logger)
	}
	payload, decodeErr := ocr.Decode(data)
	if decodeErr == nil {
		if name := payload.OriginalFilename(); name != "" {
			res.Filename = name
		}
	}
	attempt := p.attempt(ctx, res.Filename, src, data)
	if decodeErr != nil {
		return p.fail(ctx, tx, res, attempt, &attemptFailure{stage: StageDecode, err: decodeErr}, start, logger)
	}

	done, err := p.store.Repos().Documents.FindCompletedByFilename(ctx, res.Filename)
	switch {
	case err == nil:
		res.Outcome = constants.OutcomeSkipped
		res.Reason = constants.ReasonAlreadyProcessed
		res.DocumentID = done.ID
		res.Duration = p.now().Sub(start)
		logger.Info("document skipped", "filename", res.Filename, "document_id", done.ID, "reason", res.Reason)
		return res
	case !errors.Is(err, repository.ErrNotFound):
		return p.fail(ctx, tx, res, attempt, &attemptFailure{stage: StagePersist, err: fmt.Errorf("check processed: %w", err)}, start, logger)
	}

	// from here on the document runs to completion or rolls back as a whole
	ctx = context.WithoutCancel(ctx)
	pages := len(payload.Pages)
	err = tx.InTx(ctx, func(r *repository.Repos) error {
		now := p.now()
		doc, err := r.Documents.BeginAttempt(ctx, attempt, now)
		if err != nil {
			return fmt.Errorf("begin document: %w", err)
		}
		res.DocumentID = doc.ID
		job, err := r.Jobs.Start(ctx, doc.ID, now)
		if err != nil {
			return fmt.Errorf("start job: %w", err)
		}

		cand, err := p.engine.Extract(payload, now)
		if err != nil {
			return err
		}

		supplier, err := r.Parties.Resolve(ctx, cand.Supplier.PartyIdentity, constants.RoleSupplier)
		if err != nil {
			return fmt.Errorf("resolve supplier: %w", err)
		}
		customer, err := r.Parties.Resolve(ctx, cand.Customer.PartyIdentity, constants.RoleCustomer)
		if err != nil {
			return fmt.Errorf("resolve customer: %w", err)
		}

		inv, outcome, err := r.Invoices.CreateOrRelink(ctx, repository.NewInvoice{
			InvoiceNumber: cand.InvoiceNumber,
			InvoiceDate:   cand.InvoiceDate,
			SupplierID:    supplier.ID,
			CustomerID:    customer.ID,
			Currency:      cand.Currency,
			Subtotal:      cand.Amounts.Subtotal,
			Tax:           cand.Amounts.Tax,
			Total:         cand.Amounts.Total,
			DocumentID:    doc.ID,
		})
		if err != nil {
			return fmt.Errorf("store invoice: %w", err)
		}
		if err := r.Fields.Record(ctx, doc.ID, constants.ExtractionMethod, fieldValues(cand.Fields())); err != nil {
			return fmt.Errorf("record fields: %w", err)
		}

		done := p.now()
		if err := r.Documents.MarkCompleted(ctx, doc.ID, done); err != nil {
			return fmt.Errorf("complete document: %w", err)
		}
		if err := r.Jobs.FinishSuccess(ctx, job.ID, cand.Pages, done); err != nil {
			return fmt.Errorf("finish job: %w", err)
		}

		res.InvoiceID = inv.ID
		res.InvoiceNumber = inv.InvoiceNumber
		res.Total = inv.Total
		res.Currency = inv.Currency
		res.SupplierName = supplier.Name
		res.CustomerName = customer.Name
		res.Relinked = outcome == repository.InvoiceRelinked
		logger.Debug("document persisted",
			"document_id", doc.ID,
			"job_id", job.ID,
			"invoice_number", inv.InvoiceNumber,
			"invoice", outcome.String(),
		)
		return nil
	})
	if err != nil {
		res.DocumentID = uuid.Nil
		res.InvoiceID = uuid.Nil
		return p.fail(ctx, tx, res, attempt, &attemptFailure{stage: StagePersist, err: err, pages: pages}, start, logger)
	}

	res.Outcome = constants.OutcomeSuccess
	res.Duration = p.now().Sub(start)
	logger.Info("document processed",
		"document_id", res.DocumentID,
		"invoice_number", res.InvoiceNumber,
		"total", res.Total,
		"supplier", res.SupplierName,
		"customer", res.CustomerName,
		"relinked", res.Relinked,
		"duration", res.Duration,
	)
	return res
}

func (p *Processor) attempt(ctx context.Context, filename string, src ingest.Source, data []byte) repository.Attempt {
	a := repository.Attempt{
		Filename: filename,
		FilePath: src.Location(),
		Bucket:   src.Bucket(),
	}
	if a.Bucket == "" {
		a.Bucket = p.bucket
	}
	if data != nil {
		size := int64(len(data))
		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		a.FileSize, a.FileHash = &size, &hash
	}
	if id := common.BatchIDFromContext(ctx); id != "" {
		a.BatchID = &id
	}
	return a
}

// fail records the failed attempt in its own unit of work and returns the
// Failed result. The error text is kept verbatim.
func (p *Processor) fail(ctx context.Context, tx repository.Transactor, res Result, a repository.Attempt, f *attemptFailure, start time.Time, logger *slog.Logger) Result {
	// a cancelled or expired caller still gets its audit rows
	ctx = context.WithoutCancel(ctx)
	res.Outcome = constants.OutcomeFailed
	res.Error = f.Error()
	res.Stage = f.stage
	var xerr *extract.ExtractionError
	if errors.As(f.err, &xerr) {
		res.State = xerr.State
		res.Stage = StageExtract
	}

	err := tx.InTx(ctx, func(r *repository.Repos) error {
		now := p.now()
		doc, err := r.Documents.BeginAttempt(ctx, a, now)
		if err != nil {
			return err
		}
		res.DocumentID = doc.ID
		job, err := r.Jobs.Start(ctx, doc.ID, start)
		if err != nil {
			return err
		}
		if err := r.Jobs.FinishFailure(ctx, job.ID, res.Error, f.pages, now); err != nil {
			return err
		}
		return r.Documents.MarkFailed(ctx, doc.ID, res.Error, now)
	})
	if err != nil {
		res.DocumentID = uuid.Nil
		logger.Error("failed to record document failure", "filename", res.Filename, "cause", res.Error, "error", err)
	}

	res.Duration = p.now().Sub(start)
	logger.Warn("document failed",
		"filename", res.Filename,
		"document_id", res.DocumentID,
		"stage", res.Stage,
		"state", res.State,
		"error", res.Error,
	)
	return res
}

func fieldValues(fields []extract.Field) []repository.FieldValue {
	out := make([]repository.FieldValue, 0, len(fields))
	for _, f := range fields {
		out = append(out, repository.FieldValue{Name: f.Name, Value: f.Value, Confidence: f.Confidence})
	}
	return out
}

// ProcessMany runs ProcessOne over sources in order, each in its own unit of
// work against the processor's store. Once ctx is done the remaining sources
// are reported as skipped; the document in flight is allowed to finish.
func (p *Processor) ProcessMany(ctx context.Context, sources []ingest.Source) *Report {
	batchID := uuid.NewString()
	report := NewReport(batchID, p.now())
	ctx = common.WithBatchID(ctx, batchID)
	logger := p.logger.With("batch_id", batchID)
	logger.Info("batch started", "documents", len(sources))

	for _, src := range sources {
		if ctx.Err() != nil {
			report.Add(Result{
				Outcome:  constants.OutcomeSkipped,
				Filename: src.Name(),
				Location: src.Location(),
				Reason:   constants.ReasonBatchCancelled,
			})
			continue
		}
		report.Add(p.ProcessOne(context.WithoutCancel(ctx), p.store, src))
	}

	report.Finish(p.now())
	s := report.Summary()
	logger.Info("batch finished",
		"total", s.Total,
		"successful", s.Successful,
		"failed", s.Failed,
		"skipped", s.Skipped,
		"success_rate", s.SuccessRate,
		"total_amount", s.TotalAmount.StringFixed(2),
		"duration", s.Duration,
	)
	if err := report.Validate(); err != nil {
		logger.Error("batch report inconsistent", "error", err)
	}
	return report
}

// ProcessDirectory ingests every OCR result directly under dir.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string, skipHidden bool) (*Report, error) {
	sources, err := ingest.DirectorySources(dir, skipHidden)
	if err != nil {
		p.logger.Error("failed to list directory", "dir", dir, "error", err)
		return nil, err
	}
	return p.ProcessMany(ctx, sources), nil
}

// ProcessFiles ingests an explicit list of OCR result files.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) *Report {
	return p.ProcessMany(ctx, ingest.FileSources(paths))
}
