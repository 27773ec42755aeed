package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
	"github.com/joseph-ayodele/invoice-ledger/internal/server"
)

// runocr extracts one file without touching the database: raw scans go
// through the configured recognizer, OCR results are read as is.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <scan.pdf|result.json>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "error", err)
		os.Exit(1)
	}
	if !constants.IsOCRResult(filepath.Ext(path)) {
		if cfg.OCR.Command == "" {
			logger.Error("OCR_COMMAND is required for raw documents")
			os.Exit(2)
		}
		rec := ocr.NewCommandRecognizer(ocr.Config{
			Command:   cfg.OCR.Command,
			Args:      cfg.OCR.Args,
			Timeout:   cfg.OCR.Timeout,
			TempDir:   cfg.OCR.TempDir,
			Processor: cfg.OCR.Processor,
		}, logger)
		start := time.Now()
		if data, err = rec.Recognize(ctx, path, data); err != nil {
			logger.Error("ocr failed", "error", err)
			os.Exit(1)
		}
		logger.Info("ocr OK", "processor", rec.Name(), "duration_ms", time.Since(start).Milliseconds())
	}

	payload, err := ocr.Decode(data)
	if err != nil {
		logger.Error("decode", "error", err)
		os.Exit(1)
	}
	engine, err := server.NewEngine(cfg.Ingest, logger)
	if err != nil {
		os.Exit(1)
	}
	cand, err := engine.Extract(payload, time.Now())
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"invoice_number":     cand.InvoiceNumber,
		"number_rule":        cand.NumberRule,
		"invoice_date":       cand.InvoiceDate.Format("2006-01-02"),
		"date_from_fallback": cand.DateFromFallback,
		"supplier":           cand.Supplier.PartyIdentity,
		"customer":           cand.Customer.PartyIdentity,
		"currency":           cand.Currency,
		"subtotal":           cand.Amounts.Subtotal,
		"tax":                cand.Amounts.Tax,
		"total":              cand.Amounts.Total,
		"pages":              cand.Pages,
		"lines":              cand.Lines,
	})
}
