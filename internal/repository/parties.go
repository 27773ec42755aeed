package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

const partiesTable = "companies"

type PartyRepository interface {
	Resolve(ctx context.Context, id entity.PartyIdentity, role constants.PartyRole) (*entity.Party, error)
	GetByVAT(ctx context.Context, vat string) (*entity.Party, error)
}

type partyRepo struct {
	c      conn
	logger *slog.Logger
}

func NewPartyRepository(db dialect.ExecQuerier, dialectName string, logger *slog.Logger) PartyRepository {
	return &partyRepo{c: newConn(db, dialectName), logger: logger}
}

// Resolve returns the party for the identity's VAT number, creating it on first
// sighting and adding the role's capability flag when it is missing. The name of
// an existing party is never overwritten.
func (r *partyRepo) Resolve(ctx context.Context, id entity.PartyIdentity, role constants.PartyRole) (*entity.Party, error) {
	vat := strings.TrimSpace(id.VATNumber)
	if vat == "" {
		vat = constants.UnknownVAT
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = unknownName(role)
	}
	supplier := role == constants.RoleSupplier
	customer := role == constants.RoleCustomer

	now := time.Now().UTC()
	ins := r.c.b.Insert(partiesTable).
		Columns("id", "vat_number", "name", "is_supplier", "is_customer", "created_at", "updated_at").
		Values(uuid.New(), vat, name, supplier, customer, now, now).
		OnConflict(entsql.ConflictColumns("vat_number"), entsql.DoNothing())
	created, err := r.c.exec(ctx, ins)
	if err != nil {
		r.logger.Error("party insert failed", "vat_number", vat, "error", err)
		return nil, err
	}

	p, err := r.GetByVAT(ctx, vat)
	if err != nil {
		r.logger.Error("party lookup failed", "vat_number", vat, "error", err)
		return nil, err
	}
	if created == 1 {
		r.logger.Info("party created", "party_id", p.ID, "vat_number", vat, "name", name, "role", role)
		return p, nil
	}

	flag := ""
	switch {
	case supplier && !p.IsSupplier:
		flag, p.IsSupplier = "is_supplier", true
	case customer && !p.IsCustomer:
		flag, p.IsCustomer = "is_customer", true
	}
	if flag != "" {
		upd := r.c.b.Update(partiesTable).
			Set(flag, true).
			Set("updated_at", now).
			Where(entsql.EQ("id", p.ID))
		if _, err := r.c.exec(ctx, upd); err != nil {
			r.logger.Error("party flag update failed", "party_id", p.ID, "flag", flag, "error", err)
			return nil, err
		}
		p.UpdatedAt = now
		r.logger.Info("party capability added", "party_id", p.ID, "flag", flag)
	}
	return p, nil
}

func (r *partyRepo) GetByVAT(ctx context.Context, vat string) (*entity.Party, error) {
	q := r.c.b.Select("id", "vat_number", "name", "is_supplier", "is_customer", "created_at", "updated_at").
		From(r.c.b.Table(partiesTable)).
		Where(entsql.EQ("vat_number", vat))
	var p entity.Party
	err := r.c.queryOne(ctx, q, func(rows *entsql.Rows) error {
		var created, updated nullTime
		if err := rows.Scan(&p.ID, &p.VATNumber, &p.Name, &p.IsSupplier, &p.IsCustomer, &created, &updated); err != nil {
			return err
		}
		p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func unknownName(role constants.PartyRole) string {
	if role == constants.RoleCustomer {
		return constants.UnknownCustomerName
	}
	return constants.UnknownSupplierName
}
