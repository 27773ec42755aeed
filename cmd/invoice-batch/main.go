package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory of OCR result files (.json)")
		files      = flag.String("files", "", "comma-separated OCR result files")
		reprocess  = flag.Bool("reprocess-failed", false, "re-run every document in status failed")
		documentID = flag.String("document", "", "re-run one document by ID")
		out        = flag.String("out", "", "write the batch report as XLSX to this path")
		asJSON     = flag.Bool("json", false, "print the full report as JSON")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	modes := 0
	for _, set := range []bool{*dir != "", *files != "", *reprocess, *documentID != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		printError("Error: exactly one of --dir, --files, --reprocess-failed, --document is required\n")
		flag.Usage()
		os.Exit(2)
	}
	var docID uuid.UUID
	if *documentID != "" {
		id, err := uuid.Parse(*documentID)
		if err != nil {
			printError("Error: invalid --document id: %v\n", err)
			os.Exit(2)
		}
		docID = id
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *inmem {
		cfg.Database.InMemory = true
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// Ctrl-C stops submitting documents; the one in flight still finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var report *core.Report
	switch {
	case *dir != "":
		report, err = app.Processor.ProcessDirectory(ctx, *dir, cfg.Ingest.SkipHidden)
	case *files != "":
		report = app.Processor.ProcessFiles(ctx, strings.Split(*files, ","))
	case *reprocess:
		report, err = app.Reprocessor.ReprocessFailed(ctx)
	default:
		report, err = app.Reprocessor.ReprocessDocument(ctx, docID)
	}
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	if *out != "" {
		xlsx, err := app.Exporter.ReportXLSX(report)
		if err != nil {
			logger.Error("failed to export report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Error("failed to encode report", "error", err)
			os.Exit(1)
		}
	} else {
		printSummary(report, *out)
	}
	if len(report.Failed) > 0 {
		os.Exit(3)
	}
}

func printSummary(r *core.Report, out string) {
	s := r.Summary()
	fmt.Printf("Batch %s complete!\n", r.BatchID)
	fmt.Printf("- Total: %d\n", s.Total)
	fmt.Printf("- Successful: %d (relinked %d)\n", s.Successful, s.Relinked)
	fmt.Printf("- Failed: %d\n", s.Failed)
	fmt.Printf("- Skipped: %d\n", s.Skipped)
	fmt.Printf("- Success rate: %.1f%%\n", s.SuccessRate)
	fmt.Printf("- Total amount: %s\n", s.TotalAmount.StringFixed(2))
	for _, f := range r.Failed {
		fmt.Printf("  FAILED %s: %s\n", f.Filename, f.Error)
	}
	if out != "" {
		fmt.Printf("- Output: %s\n", out)
	}
}
