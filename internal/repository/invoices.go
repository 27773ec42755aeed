package repository

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

const invoicesTable = "invoices"

var invoiceColumns = []string{
	"id", "invoice_number", "invoice_date", "supplier_id", "customer_id", "currency",
	"subtotal", "tax", "total", "document_id", "created_at", "updated_at",
}

// LinkOutcome tells whether CreateOrRelink inserted a row or pointed an existing one at a new document.
type LinkOutcome int

const (
	InvoiceCreated LinkOutcome = iota + 1
	InvoiceRelinked
)

func (o LinkOutcome) String() string {
	switch o {
	case InvoiceCreated:
		return "created"
	case InvoiceRelinked:
		return "relinked"
	}
	return "unknown"
}

// NewInvoice carries the values of an invoice about to be stored.
type NewInvoice struct {
	InvoiceNumber string
	InvoiceDate   time.Time
	SupplierID    uuid.UUID
	CustomerID    uuid.UUID
	Currency      string
	Subtotal      decimal.NullDecimal
	Tax           decimal.NullDecimal
	Total         decimal.NullDecimal
	DocumentID    uuid.UUID
}

type InvoiceRepository interface {
	CreateOrRelink(ctx context.Context, in NewInvoice) (*entity.Invoice, LinkOutcome, error)
	GetByKey(ctx context.Context, supplierID uuid.UUID, number string) (*entity.Invoice, error)
	CountByKey(ctx context.Context, supplierID uuid.UUID, number string) (int, error)
	GetByDocument(ctx context.Context, documentID uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, from, to *time.Time, limit int) ([]entity.InvoiceRow, error)
	Recent(ctx context.Context, limit int) ([]entity.InvoiceRow, error)
	Totals(ctx context.Context) (int, decimal.Decimal, error)
}

type invoiceRepo struct {
	c      conn
	logger *slog.Logger
}

func NewInvoiceRepository(db dialect.ExecQuerier, dialectName string, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepo{c: newConn(db, dialectName), logger: logger}
}

// CreateOrRelink inserts the invoice unless (supplier, invoice_number) already
// exists, in which case the existing row is re-pointed at in.DocumentID. The
// unique constraint decides the race between concurrent writers.
func (r *invoiceRepo) CreateOrRelink(ctx context.Context, in NewInvoice) (*entity.Invoice, LinkOutcome, error) {
	now := time.Now().UTC()
	ins := r.c.b.Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(uuid.New(), in.InvoiceNumber, dateOnly(in.InvoiceDate), in.SupplierID, in.CustomerID, in.Currency,
			in.Subtotal, in.Tax, in.Total, in.DocumentID, now, now).
		OnConflict(entsql.ConflictColumns("supplier_id", "invoice_number"), entsql.DoNothing())
	n, err := r.c.exec(ctx, ins)
	if err != nil {
		r.logger.Error("invoice insert failed", "invoice_number", in.InvoiceNumber, "error", err)
		return nil, 0, err
	}

	outcome := InvoiceCreated
	if n == 0 {
		outcome = InvoiceRelinked
		upd := r.c.b.Update(invoicesTable).
			Set("document_id", in.DocumentID).
			Set("updated_at", now).
			Where(entsql.And(
				entsql.EQ("supplier_id", in.SupplierID),
				entsql.EQ("invoice_number", in.InvoiceNumber),
			))
		if _, err := r.c.exec(ctx, upd); err != nil {
			r.logger.Error("invoice relink failed", "invoice_number", in.InvoiceNumber, "error", err)
			return nil, 0, err
		}
	}

	inv, err := r.GetByKey(ctx, in.SupplierID, in.InvoiceNumber)
	if err != nil {
		return nil, 0, err
	}
	r.logger.Info("invoice stored", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber, "outcome", outcome.String(), "document_id", in.DocumentID)
	return inv, outcome, nil
}

func (r *invoiceRepo) selectInvoices() *entsql.Selector {
	return r.c.b.Select(invoiceColumns...).From(r.c.b.Table(invoicesTable))
}

func (r *invoiceRepo) one(ctx context.Context, q entsql.Querier) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.c.queryOne(ctx, q, func(rows *entsql.Rows) error {
		return scanInvoice(rows, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvoice(rows *entsql.Rows, inv *entity.Invoice, extra ...any) error {
	var date, created, updated nullTime
	dest := []any{&inv.ID, &inv.InvoiceNumber, &date, &inv.SupplierID, &inv.CustomerID, &inv.Currency,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.DocumentID, &created, &updated}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	inv.InvoiceDate = dateOnly(date.Time)
	inv.CreatedAt, inv.UpdatedAt = created.Time, updated.Time
	return nil
}

func (r *invoiceRepo) GetByKey(ctx context.Context, supplierID uuid.UUID, number string) (*entity.Invoice, error) {
	return r.one(ctx, r.selectInvoices().Where(entsql.And(
		entsql.EQ("supplier_id", supplierID),
		entsql.EQ("invoice_number", number),
	)))
}

func (r *invoiceRepo) CountByKey(ctx context.Context, supplierID uuid.UUID, number string) (int, error) {
	q := r.c.b.Select(entsql.Count("*")).
		From(r.c.b.Table(invoicesTable)).
		Where(entsql.And(
			entsql.EQ("supplier_id", supplierID),
			entsql.EQ("invoice_number", number),
		))
	var n int64
	err := r.c.queryOne(ctx, q, func(rows *entsql.Rows) error { return rows.Scan(&n) })
	return int(n), err
}

func (r *invoiceRepo) GetByDocument(ctx context.Context, documentID uuid.UUID) (*entity.Invoice, error) {
	return r.one(ctx, r.selectInvoices().Where(entsql.EQ("document_id", documentID)))
}

// List returns invoices joined with their parties, ordered by invoice date.
// Nil bounds are open; both are inclusive.
func (r *invoiceRepo) List(ctx context.Context, from, to *time.Time, limit int) ([]entity.InvoiceRow, error) {
	q, i := r.joined()
	var preds []*entsql.Predicate
	if from != nil {
		preds = append(preds, entsql.GTE(i.C("invoice_date"), dateOnly(*from)))
	}
	if to != nil {
		preds = append(preds, entsql.LTE(i.C("invoice_date"), dateOnly(*to)))
	}
	if len(preds) > 0 {
		q = q.Where(entsql.And(preds...))
	}
	q = q.OrderBy(i.C("invoice_date"), i.C("invoice_number"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.rows(ctx, q)
}

// Recent returns the most recently stored invoices first.
func (r *invoiceRepo) Recent(ctx context.Context, limit int) ([]entity.InvoiceRow, error) {
	q, i := r.joined()
	q = q.OrderBy(i.C("created_at") + " DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.rows(ctx, q)
}

func (r *invoiceRepo) joined() (*entsql.Selector, *entsql.SelectTable) {
	i := r.c.b.Table(invoicesTable).As("i")
	s := r.c.b.Table(partiesTable).As("s")
	c := r.c.b.Table(partiesTable).As("c")
	d := r.c.b.Table(documentsTable).As("d")
	cols := make([]string, 0, len(invoiceColumns)+5)
	for _, col := range invoiceColumns {
		cols = append(cols, i.C(col))
	}
	cols = append(cols, s.C("name"), s.C("vat_number"), c.C("name"), c.C("vat_number"), d.C("filename"))
	q := r.c.b.Select(cols...).
		From(i).
		Join(s).On(i.C("supplier_id"), s.C("id")).
		Join(c).On(i.C("customer_id"), c.C("id")).
		Join(d).On(i.C("document_id"), d.C("id"))
	return q, i
}

func (r *invoiceRepo) rows(ctx context.Context, q *entsql.Selector) ([]entity.InvoiceRow, error) {
	var out []entity.InvoiceRow
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		var row entity.InvoiceRow
		if err := scanInvoice(rows, &row.Invoice,
			&row.SupplierName, &row.SupplierVAT, &row.CustomerName, &row.CustomerVAT, &row.Filename); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		r.logger.Error("invoice listing failed", "error", err)
		return nil, err
	}
	return out, nil
}

// Totals returns the invoice count and the exact sum of known totals.
func (r *invoiceRepo) Totals(ctx context.Context) (int, decimal.Decimal, error) {
	q := r.c.b.Select("total").From(r.c.b.Table(invoicesTable))
	var (
		count int
		sum   = decimal.Zero
	)
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		var total decimal.NullDecimal
		if err := rows.Scan(&total); err != nil {
			return err
		}
		count++
		if total.Valid {
			sum = sum.Add(total.Decimal)
		}
		return nil
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	return count, sum, nil
}
