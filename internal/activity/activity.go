package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
	"github.com/joseph-ayodele/invoice-ledger/internal/repository"
	"github.com/joseph-ayodele/invoice-ledger/internal/storage"
)

// Request names one uploaded document: either a raw scan that still needs
// OCR, or an OCR result.
type Request struct {
	Bucket   string `json:"bucket" validate:"required,max=255"`
	Filename string `json:"filename" validate:"required,max=1024"`
}

// Activity is the operation exposed to the workflow scheduler. It is safe to
// run more than once for the same request.
type Activity struct {
	store      storage.Store
	recognizer ocr.Recognizer
	proc       *core.Processor
	tx         repository.Transactor
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

func New(store storage.Store, recognizer ocr.Recognizer, proc *core.Processor, tx repository.Transactor, logger *slog.Logger) *Activity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activity{
		store:      store,
		recognizer: recognizer,
		proc:       proc,
		tx:         tx,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		now:        time.Now,
	}
}

// Process returns a human-readable message, or a *common.ProcessingError.
func (a *Activity) Process(ctx context.Context, req Request) (string, error) {
	if err := a.validate.Struct(req); err != nil {
		return "", common.NewProcessingError(common.KindInvalidRequest, req.Filename, err.Error(), err)
	}
	logger := a.logger.With("bucket", req.Bucket, "file", req.Filename)
	ext := constants.NormalizeExt(path.Ext(req.Filename))
	base := strings.TrimSuffix(path.Base(req.Filename), path.Ext(req.Filename))

	data, err := a.store.Download(ctx, req.Bucket, req.Filename)
	if err != nil {
		logger.Error("download failed", "error", err)
		return "", collaboratorError(req.Filename, "download", err)
	}

	src := ingest.BytesSource{Filename: path.Base(req.Filename), Path: req.Filename, Data: data, From: req.Bucket}
	switch {
	case constants.IsOCRResult(ext):
	case isRawDocument(ext):
		out, err := a.recognize(ctx, req, base, data, logger)
		if err != nil {
			return "", err
		}
		src.Path, src.Data = constants.OCROutputPrefix+base+".json", out
	default:
		return "", common.NewProcessingError(common.KindInvalidRequest, req.Filename,
			fmt.Sprintf("unsupported file type %q", ext), nil)
	}

	res := a.proc.ProcessOne(ctx, a.tx, src)
	if err := a.storeResult(ctx, req.Bucket, base, res); err != nil {
		logger.Error("result upload failed", "error", err)
		return "", collaboratorError(req.Filename, "upload result", err)
	}

	switch res.Outcome {
	case constants.OutcomeSuccess:
		return successMessage(res), nil
	case constants.OutcomeSkipped:
		return fmt.Sprintf("%s skipped: %s", res.Filename, res.Reason), nil
	}
	kind := common.KindExtraction
	if res.Stage == core.StageLoad || res.Stage == core.StagePersist {
		kind = common.KindCollaborator
	}
	return "", common.NewProcessingError(kind, res.Filename, res.Error, nil)
}

// recognize runs OCR over a raw scan and stores the annotated result next to
// it. An existing result is overwritten: a retried activity must converge on
// the latest recognition.
func (a *Activity) recognize(ctx context.Context, req Request, base string, data []byte, logger *slog.Logger) ([]byte, error) {
	if a.recognizer == nil {
		return nil, common.NewProcessingError(common.KindInvalidRequest, req.Filename, "no OCR recognizer configured", nil)
	}
	start := a.now()
	raw, err := a.recognizer.Recognize(ctx, req.Filename, data)
	if err != nil {
		logger.Error("ocr failed", "processor", a.recognizer.Name(), "error", err)
		if errors.Is(err, ocr.ErrMalformedPayload) {
			return nil, common.NewProcessingError(common.KindExtraction, req.Filename, err.Error(), err)
		}
		return nil, collaboratorError(req.Filename, "ocr", err)
	}
	out, err := ocr.Annotate(raw, ocr.Metadata{
		OriginalFilename:    path.Base(req.Filename),
		ProcessingTimestamp: start.UTC().Format(time.RFC3339),
		FileSizeBytes:       int64(len(data)),
		Processor:           a.recognizer.Name(),
		DurationSeconds:     a.now().Sub(start).Seconds(),
	})
	if err != nil {
		return nil, common.NewProcessingError(common.KindExtraction, req.Filename, err.Error(), err)
	}

	key := constants.OCROutputPrefix + base + ".json"
	result, err := a.store.Upload(ctx, req.Bucket, key, out, constants.ContentTypeJSON, false)
	if err == nil && result == storage.AlreadyExists {
		logger.Info("ocr output exists, updating", "key", key)
		result, err = a.store.Upload(ctx, req.Bucket, key, out, constants.ContentTypeJSON, true)
	}
	if err != nil {
		return nil, collaboratorError(req.Filename, "upload ocr output", err)
	}
	logger.Info("ocr output stored", "key", key, "result", result.String())
	return out, nil
}

func (a *Activity) storeResult(ctx context.Context, bucket, base string, res core.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = a.store.Upload(ctx, bucket, constants.ResultPrefix+base+".json", body, constants.ContentTypeJSON, true)
	return err
}

func successMessage(res core.Result) string {
	total := "unknown"
	if res.Total.Valid {
		total = res.Total.Decimal.StringFixed(2) + " " + res.Currency
	}
	verb := "created"
	if res.Relinked {
		verb = "relinked"
	}
	return fmt.Sprintf("invoice %s %s from %s: total %s, supplier %s, customer %s",
		res.InvoiceNumber, verb, res.Filename, total, res.SupplierName, res.CustomerName)
}

func collaboratorError(filename, step string, err error) error {
	return common.NewProcessingError(common.KindCollaborator, filename, step+": "+err.Error(), err)
}

func isRawDocument(ext string) bool {
	_, ok := constants.RawDocumentExtensions[ext]
	return ok
}
