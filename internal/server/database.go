package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	repo "github.com/joseph-ayodele/invoice-ledger/internal/repository"
)

// ConnectDB opens the configured database and applies the schema. inmem
// forces a private SQLite database regardless of the DSN.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*repo.DB, error) {
	db, err := repo.Connect(ctx, repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, inmem || cfg.InMemory, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	return repo.HealthCheck(ctx, db, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repo.DB, logger *slog.Logger) {
	repo.Close(db, logger)
}
