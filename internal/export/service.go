package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/repository"
)

// Service produces XLSX bytes for batch reports and invoice listings.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// InvoicesXLSX returns a workbook of invoices dated within [from, to].
// If only from is provided -> from..today (inclusive).
// If neither is provided   -> all invoices.
func (s *Service) InvoicesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	fromDate, toDate := dateWindow(from, to)

	rows, err := s.invoices.List(ctx, fromDate, toDate, 0)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Invoices"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}
	writeHeader(f, sheet, []string{
		"Invoice Date",
		"Invoice Number",
		"Supplier",
		"Supplier VAT",
		"Customer",
		"Customer VAT",
		"Currency",
		"Subtotal",
		"Tax",
		"Total",
		"Document",
	})

	for i, r := range rows {
		writeRow(f, sheet, i+2,
			r.InvoiceDate.Format("2006-01-02"),
			r.InvoiceNumber,
			r.SupplierName,
			r.SupplierVAT,
			r.CustomerName,
			r.CustomerVAT,
			r.Currency,
			amountCell(r.Subtotal),
			amountCell(r.Tax),
			amountCell(r.Total),
			r.Filename,
		)
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // number
	_ = f.SetColWidth(sheet, "C", "F", 24) // parties
	_ = f.SetColWidth(sheet, "H", "J", 14) // amounts
	_ = f.SetColWidth(sheet, "K", "K", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("invoices exported", "rows", len(rows), "bytes", buf.Len(), "duration", time.Since(start))
	return buf.Bytes(), nil
}

// ReportXLSX renders a batch report: a summary sheet and one row per document.
func (s *Service) ReportXLSX(r *core.Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report")
	}
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := useSheet(f, summary); err != nil {
		return nil, err
	}
	sum := r.Summary()
	for i, kv := range [][2]any{
		{"Batch", r.BatchID},
		{"Started", r.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", r.FinishedAt.UTC().Format(time.RFC3339)},
		{"Total", sum.Total},
		{"Successful", sum.Successful},
		{"Failed", sum.Failed},
		{"Skipped", sum.Skipped},
		{"Relinked", sum.Relinked},
		{"Success rate %", fmt.Sprintf("%.1f", sum.SuccessRate)},
		{"Total amount", sum.TotalAmount.StringFixed(2)},
	} {
		writeRow(f, summary, i+1, kv[0], kv[1])
	}
	_ = f.SetColWidth(summary, "A", "A", 18)
	_ = f.SetColWidth(summary, "B", "B", 40)

	const docs = "Documents"
	if _, err := f.NewSheet(docs); err != nil {
		return nil, err
	}
	writeHeader(f, docs, []string{"Outcome", "Filename", "Invoice Number", "Supplier", "Customer", "Total", "Currency", "Detail"})
	row := 2
	for _, list := range [][]core.Result{r.Successful, r.Failed, r.Skipped} {
		for _, res := range list {
			detail := res.Error
			if detail == "" {
				detail = res.Reason
			}
			if res.Relinked {
				detail = "relinked to existing invoice"
			}
			writeRow(f, docs, row,
				string(res.Outcome),
				res.Filename,
				res.InvoiceNumber,
				res.SupplierName,
				res.CustomerName,
				amountCell(res.Total),
				res.Currency,
				truncate(detail, 140),
			)
			row++
		}
	}
	_ = f.SetColWidth(docs, "B", "B", 36)
	_ = f.SetColWidth(docs, "C", "E", 26)
	_ = f.SetColWidth(docs, "H", "H", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// useSheet renames the default sheet so the workbook has no empty Sheet1.
func useSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	vals := make([]any, len(headers))
	for i, h := range headers {
		vals[i] = h
	}
	writeRow(f, sheet, 1, vals...)
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// amountCell writes amounts as numbers; absent ones stay blank.
func amountCell(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal.InexactFloat64()
}

func dateWindow(from, to *time.Time) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	return fromDate, toDate
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
