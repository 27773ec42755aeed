package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/core/async"
	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
	"github.com/joseph-ayodele/invoice-ledger/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Ingest.WatchDir == "" {
		logger.Error("INGEST_WATCH_DIR is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue := async.NewProcessorQueue(app.Processor, app.Store, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.DocumentTimeout),
		async.WithResultHandler(func(job async.Job, res core.Result) {
			if res.Outcome == constants.OutcomeFailed {
				logger.Warn("document needs attention", "trace_id", job.TraceID, "file", res.Filename, "error", res.Error)
			}
		}),
	)

	paths, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.WatchDir},
		InitialScan: true,
		SkipHidden:  cfg.Ingest.SkipHidden,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	// gRPC health + reflection
	grpcServer, hs := server.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("gRPC health serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
		}
	}()
	go server.WatchDatabase(ctx, hs, app.DB, 15*time.Second, logger)

	logger.Info("invoiced started", "watch_dir", cfg.Ingest.WatchDir, "workers", cfg.Ingest.Workers)
	dispatch(ctx, paths, watchErrs, func(p string) error {
		return queue.Enqueue(ctx, async.Job{Source: ingest.FileSource{Path: p}, TraceID: uuid.NewString()})
	}, logger)

	logger.Info("shutting down...")
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ingest.DocumentTimeout+5*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// dispatch hands watched paths to enqueue until ctx ends or paths closes.
func dispatch(ctx context.Context, paths <-chan string, errs <-chan error, enqueue func(string) error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			if err := enqueue(p); err != nil {
				logger.Warn("enqueue failed", "file", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
