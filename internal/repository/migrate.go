package repository

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the bundled schema for the driver's dialect. Statements are idempotent.
func Migrate(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) error {
	var file string
	switch drv.Dialect() {
	case dialect.Postgres:
		file = "migrations/postgres.sql"
	case dialect.SQLite:
		file = "migrations/sqlite.sql"
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", drv.Dialect())
	}
	ddl, err := migrations.ReadFile(file)
	if err != nil {
		return fmt.Errorf("migrate: read %s: %w", file, err)
	}

	n := 0
	for _, stmt := range strings.Split(string(ddl), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			logger.Error("migration statement failed", "file", file, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
		n++
	}
	logger.Info("schema applied", "dialect", drv.Dialect(), "statements", n)
	return nil
}
