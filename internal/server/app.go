package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/export"
	"github.com/joseph-ayodele/invoice-ledger/internal/extract"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
	repo "github.com/joseph-ayodele/invoice-ledger/internal/repository"
	"github.com/joseph-ayodele/invoice-ledger/internal/storage"
)

// App is the wired pipeline shared by the binaries.
type App struct {
	Config      *common.Config
	DB          *repo.DB
	Store       *repo.Store
	Objects     storage.Store
	Recognizer  ocr.Recognizer
	Processor   *core.Processor
	Reprocessor *core.Reprocessor
	Exporter    *export.Service
	logger      *slog.Logger
}

// NewApp connects the database and builds every component from cfg.
func NewApp(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*App, error) {
	engine, err := NewEngine(cfg.Ingest, logger)
	if err != nil {
		return nil, err
	}
	objects, err := NewObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	db, err := ConnectDB(ctx, cfg.Database, inmem, logger)
	if err != nil {
		return nil, err
	}

	store := repo.NewStore(db.Driver, logger)
	proc := core.NewProcessor(store, engine, logger, core.WithDefaultBucket(cfg.Ingest.Bucket))
	app := &App{
		Config:      cfg,
		DB:          db,
		Store:       store,
		Objects:     objects,
		Processor:   proc,
		Reprocessor: core.NewReprocessor(proc, core.StoredSources(objects), logger),
		Exporter:    export.NewService(store.Repos().Invoices, logger),
		logger:      logger,
	}
	if cfg.OCR.Command != "" {
		app.Recognizer = ocr.NewCommandRecognizer(ocr.Config{
			Command:   cfg.OCR.Command,
			Args:      cfg.OCR.Args,
			Timeout:   cfg.OCR.Timeout,
			TempDir:   cfg.OCR.TempDir,
			Processor: cfg.OCR.Processor,
		}, logger)
	}
	return app, nil
}

func (a *App) Close() {
	CloseDB(a.DB, a.logger)
}

// NewEngine builds the extraction engine, merging the rules file when set.
func NewEngine(cfg common.IngestConfig, logger *slog.Logger) (*extract.Engine, error) {
	engine := extract.NewEngine(extract.WithLogger(logger), extract.WithDefaultCurrency(cfg.DefaultCurrency))
	if cfg.RulesFile == "" {
		return engine, nil
	}
	rf, err := extract.LoadRuleFile(cfg.RulesFile)
	if err != nil {
		logger.Error("failed to load rules file", "path", cfg.RulesFile, "error", err)
		return nil, err
	}
	engine, err = engine.Extend(rf)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", cfg.RulesFile, err)
	}
	logger.Info("rules file loaded", "path", cfg.RulesFile,
		"invoice_numbers", len(rf.InvoiceNumbers), "parties", len(rf.Parties))
	return engine, nil
}

// NewObjectStore returns the configured storage backend.
func NewObjectStore(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PathStyle: cfg.PathStyle,
		}, logger)
	case "local", "":
		return storage.NewLocalStore(cfg.LocalRoot, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
