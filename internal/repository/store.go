package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Documents DocumentRepository
	Jobs      ProcessingJobRepository
	Parties   PartyRepository
	Invoices  InvoiceRepository
	Fields    ExtractedFieldRepository
}

func newRepos(db dialect.ExecQuerier, name string, logger *slog.Logger) *Repos {
	return &Repos{
		Documents: NewDocumentRepository(db, name, logger),
		Jobs:      NewProcessingJobRepository(db, name, logger),
		Parties:   NewPartyRepository(db, name, logger),
		Invoices:  NewInvoiceRepository(db, name, logger),
		Fields:    NewExtractedFieldRepository(db, name, logger),
	}
}

// Transactor runs fn as one unit of work: everything fn writes through the
// given repos commits together, or nothing does.
type Transactor interface {
	InTx(ctx context.Context, fn func(r *Repos) error) error
}

// Store is the durable store: transactional units of work plus plain reads.
type Store struct {
	drv    *entsql.Driver
	logger *slog.Logger
	repos  *Repos
}

func NewStore(drv *entsql.Driver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		drv:    drv,
		logger: logger,
		repos:  newRepos(drv, drv.Dialect(), logger),
	}
}

// Repos returns repositories that run outside any transaction.
func (s *Store) Repos() *Repos {
	return s.repos
}

func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) (err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", "error", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(newRepos(tx, s.drv.Dialect(), s.logger)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.Error("rollback failed", "error", rerr)
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", "error", err)
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
