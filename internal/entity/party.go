package entity

import (
	"time"

	"github.com/google/uuid"
)

// Party represents a company seen on an invoice, keyed by its VAT number.
type Party struct {
	ID         uuid.UUID `json:"id"`
	VATNumber  string    `json:"vat_number"`
	Name       string    `json:"name"`
	IsSupplier bool      `json:"is_supplier"`
	IsCustomer bool      `json:"is_customer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PartyIdentity is what extraction knows about a party before it is stored.
type PartyIdentity struct {
	Name      string `json:"name"`
	VATNumber string `json:"vat_number"`
}
