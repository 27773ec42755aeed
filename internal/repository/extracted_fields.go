package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

const fieldsTable = "extracted_fields"

// FieldValue is one extracted name/value pair awaiting storage.
type FieldValue struct {
	Name       string
	Value      string
	Confidence *float64
}

type ExtractedFieldRepository interface {
	Record(ctx context.Context, documentID uuid.UUID, method string, fields []FieldValue) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ExtractedField, error)
}

type extractedFieldRepo struct {
	c      conn
	logger *slog.Logger
}

func NewExtractedFieldRepository(db dialect.ExecQuerier, dialectName string, logger *slog.Logger) ExtractedFieldRepository {
	return &extractedFieldRepo{c: newConn(db, dialectName), logger: logger}
}

// Record stores non-empty fields in one statement.
func (r *extractedFieldRepo) Record(ctx context.Context, documentID uuid.UUID, method string, fields []FieldValue) error {
	now := time.Now().UTC()
	ins := r.c.b.Insert(fieldsTable).
		Columns("id", "document_id", "field_name", "field_value", "extraction_method", "confidence", "created_at")
	n := 0
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		ins.Values(uuid.New(), documentID, f.Name, f.Value, method, f.Confidence, now)
		n++
	}
	if n == 0 {
		return nil
	}
	if _, err := r.c.exec(ctx, ins); err != nil {
		r.logger.Error("extracted fields insert failed", "document_id", documentID, "error", err)
		return err
	}
	return nil
}

func (r *extractedFieldRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ExtractedField, error) {
	q := r.c.b.Select("id", "document_id", "field_name", "field_value", "extraction_method", "confidence", "created_at").
		From(r.c.b.Table(fieldsTable)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("created_at", "field_name")
	var out []entity.ExtractedField
	err := r.c.query(ctx, q, func(rows *entsql.Rows) error {
		var (
			f       entity.ExtractedField
			conf    sql.NullFloat64
			created nullTime
		)
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.FieldName, &f.FieldValue, &f.ExtractionMethod, &conf, &created); err != nil {
			return err
		}
		f.Confidence = float64Ptr(conf)
		f.CreatedAt = created.Time
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
