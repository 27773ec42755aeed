package entity

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// StatusSummary is the operational view of the store.
type StatusSummary struct {
	Documents      map[constants.DocumentStatus]int `json:"documents"`
	InvoiceCount   int                              `json:"invoice_count"`
	InvoiceTotal   decimal.Decimal                  `json:"invoice_total"`
	FailedDocs     []Document                       `json:"failed_documents"`
	RecentInvoices []InvoiceRow                     `json:"recent_invoices"`
}
