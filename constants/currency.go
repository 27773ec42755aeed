package constants

const (
	// DefaultCurrency applies when no currency marker is recognized.
	DefaultCurrency = "EUR"

	// UnknownVAT is the sentinel business identifier for unrecoverable parties.
	UnknownVAT = "UNKNOWN"

	UnknownSupplierName = "Unknown Supplier"
	UnknownCustomerName = "Unknown Customer"
)

// PartyRole is the side of the invoice a party was seen on.
type PartyRole string

const (
	RoleSupplier PartyRole = "supplier"
	RoleCustomer PartyRole = "customer"
)
