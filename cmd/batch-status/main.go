package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/export"
	"github.com/joseph-ayodele/invoice-ledger/internal/repository"
	"github.com/joseph-ayodele/invoice-ledger/internal/server"
)

func main() {
	var (
		failedLimit = flag.Int("failed", 10, "number of failed documents to show")
		recentLimit = flag.Int("recent", 10, "number of recent invoices to show")
		asJSON      = flag.Bool("json", false, "print the status as JSON")
		out         = flag.String("out", "", "also export all invoices as XLSX to this path")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := server.ConnectDB(ctx, cfg.Database, false, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)
	repos := repository.NewStore(db.Driver, logger).Repos()

	summary, err := collect(ctx, repos, *failedLimit, *recentLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		xlsx, err := export.NewService(repos.Invoices, logger).InvoicesXLSX(ctx, nil, nil)
		if err == nil {
			err = os.WriteFile(*out, xlsx, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: export: %v\n", err)
			os.Exit(1)
		}
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(summary)
		return
	}
	printStatus(summary)
}

func collect(ctx context.Context, r *repository.Repos, failedLimit, recentLimit int) (*entity.StatusSummary, error) {
	counts, err := r.Documents.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	n, total, err := r.Invoices.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoice totals: %w", err)
	}
	failed, err := r.Documents.ListByStatus(ctx, constants.DocumentFailed, failedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed documents: %w", err)
	}
	recent, err := r.Invoices.Recent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent invoices: %w", err)
	}
	return &entity.StatusSummary{
		Documents:      counts,
		InvoiceCount:   n,
		InvoiceTotal:   total,
		FailedDocs:     failed,
		RecentInvoices: recent,
	}, nil
}

func printStatus(s *entity.StatusSummary) {
	fmt.Println("Documents:")
	for _, st := range constants.AllDocumentStatuses {
		fmt.Printf("  %-11s %d\n", st, s.Documents[st])
	}
	fmt.Printf("Invoices: %d, total %s\n", s.InvoiceCount, s.InvoiceTotal.StringFixed(2))

	if len(s.FailedDocs) > 0 {
		fmt.Println("Failed documents:")
		for _, d := range s.FailedDocs {
			msg := ""
			if d.ErrorMessage != nil {
				msg = *d.ErrorMessage
			}
			fmt.Printf("  %s  %s  %s\n", d.ID, d.Filename, msg)
		}
	}
	if len(s.RecentInvoices) > 0 {
		fmt.Println("Recent invoices:")
		for _, inv := range s.RecentInvoices {
			total := "-"
			if inv.Total.Valid {
				total = inv.Total.Decimal.StringFixed(2) + " " + inv.Currency
			}
			fmt.Printf("  %s  %-28s %-24s %-24s %s\n",
				inv.InvoiceDate.Format("2006-01-02"), inv.InvoiceNumber, inv.SupplierName, inv.CustomerName, total)
		}
	}
}
