package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the ingestion target. (SupplierID, InvoiceNumber) is unique.
type Invoice struct {
	ID            uuid.UUID           `json:"id"`
	InvoiceNumber string              `json:"invoice_number"`
	InvoiceDate   time.Time           `json:"invoice_date"`
	SupplierID    uuid.UUID           `json:"supplier_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Currency      string              `json:"currency"`
	Subtotal      decimal.NullDecimal `json:"subtotal"`
	Tax           decimal.NullDecimal `json:"tax"`
	Total         decimal.NullDecimal `json:"total"`
	DocumentID    uuid.UUID           `json:"document_id"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// InvoiceRow is an invoice joined with its party names, used for listings and exports.
type InvoiceRow struct {
	Invoice
	SupplierName string `json:"supplier_name"`
	SupplierVAT  string `json:"supplier_vat"`
	CustomerName string `json:"customer_name"`
	CustomerVAT  string `json:"customer_vat"`
	Filename     string `json:"filename"`
}
