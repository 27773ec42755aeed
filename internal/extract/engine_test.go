package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

// payloadOf builds a one-page payload with one block per line.
func payloadOf(lines ...string) *ocr.Payload {
	page := ocr.Page{}
	for _, l := range lines {
		var words []ocr.Word
		for _, w := range strings.Fields(l) {
			conf := 0.9
			words = append(words, ocr.Word{Value: w, Confidence: &conf})
		}
		page.Blocks = append(page.Blocks, ocr.Block{Lines: []ocr.Line{{Words: words}}})
	}
	return &ocr.Payload{Pages: []ocr.Page{page}}
}

var amazonInvoice = []string{
	"Amazon EU S.à r.l., Niederlassung Deutschland",
	"Rechnungsnummer AEU-INV-IT-2020-1016055",
	"Rechnungsdatum 9. November 2020",
	"Rechnungsadresse SC SENSIDEV SRL",
	"Zwischensumme 107,16 €",
	"USt. Gesamt 0,00 €",
	"Zahlbetrag 107,16 €",
}

var fixedNow = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

func TestEngineExtractAmazonInvoice(t *testing.T) {
	e := NewEngine()

	c, err := e.Extract(payloadOf(amazonInvoice...), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, StateCandidateReady, c.State)
	assert.Equal(t, "AEU-INV-IT-2020-1016055", c.InvoiceNumber)
	assert.Equal(t, "amazon-eu-serial", c.NumberRule)
	assert.Equal(t, time.Date(2020, time.November, 9, 0, 0, 0, 0, time.UTC), c.InvoiceDate)
	assert.False(t, c.DateFromFallback)

	require.True(t, c.Amounts.Total.Valid)
	assert.Equal(t, "107.16", FormatAmount(c.Amounts.Total.Decimal))
	require.True(t, c.Amounts.Tax.Valid)
	assert.Equal(t, "0.00", FormatAmount(c.Amounts.Tax.Decimal))
	require.True(t, c.Amounts.Subtotal.Valid)
	assert.Equal(t, "107.16", FormatAmount(c.Amounts.Subtotal.Decimal))

	assert.Equal(t, "EUR", c.Currency)
	assert.Equal(t, "Amazon EU S.à r.l.", c.Supplier.Name)
	assert.True(t, c.Supplier.Known)
	assert.Equal(t, constants.UnknownVAT, c.Supplier.VATNumber)
	assert.Equal(t, "SC SENSIDEV SRL", c.Customer.Name)
	assert.Equal(t, "RO30428638", c.Customer.VATNumber)
	assert.Equal(t, 1, c.Pages)
	assert.Equal(t, len(amazonInvoice), c.Lines)
}

func TestEngineExtractSupplierVATFromText(t *testing.T) {
	lines := append([]string{"USt-IDNr.: DE814584193"}, amazonInvoice...)
	c, err := NewEngine().Extract(payloadOf(lines...), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "DE814584193", c.Supplier.VATNumber)
	// the identifier line must not be read as a tax amount
	assert.Equal(t, "0.00", FormatAmount(c.Amounts.Tax.Decimal))
}

func TestEngineExtractNoInvoiceNumber(t *testing.T) {
	tests := []struct {
		name    string
		payload *ocr.Payload
	}{
		{name: "nil payload", payload: nil},
		{name: "no pages", payload: &ocr.Payload{}},
		{name: "empty page", payload: &ocr.Payload{Pages: []ocr.Page{{}}}},
		{name: "text without number", payload: payloadOf("Zahlbetrag 107,16 €", "Amazon")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewEngine().Extract(tt.payload, fixedNow)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, ErrNoInvoiceNumber))
			assert.Equal(t, "no invoice number found", err.Error())

			var xerr *ExtractionError
			require.True(t, errors.As(err, &xerr))
			assert.Equal(t, StateNumberMissing, xerr.State)
		})
	}
}

func TestEngineExtractDegradesToAbsent(t *testing.T) {
	c, err := NewEngine().Extract(payloadOf("Invoice Number: INV-2024-001", "Thank you"), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "INV-2024-001", c.InvoiceNumber)
	assert.True(t, c.DateFromFallback)
	assert.Equal(t, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC), c.InvoiceDate)
	assert.False(t, c.Amounts.Total.Valid)
	assert.False(t, c.Amounts.Tax.Valid)
	assert.False(t, c.Amounts.Subtotal.Valid)
	assert.Equal(t, constants.DefaultCurrency, c.Currency)
	assert.Equal(t, constants.UnknownSupplierName, c.Supplier.Name)
	assert.Equal(t, constants.UnknownCustomerName, c.Customer.Name)
	assert.False(t, c.Supplier.Known)

	names := map[string]string{}
	for _, f := range c.Fields() {
		names[f.Name] = f.Value
	}
	assert.Equal(t, "INV-2024-001", names["invoice_number"])
	assert.NotContains(t, names, "invoice_date")
	assert.NotContains(t, names, "total_amount")
	assert.NotContains(t, names, "tax_amount")
}

func TestEngineTaxMustBeBelowTotal(t *testing.T) {
	c, err := NewEngine().Extract(payloadOf(
		"Invoice No. 2024-77",
		"VAT 250,00",
		"Tax 19,00",
		"Total 119,00",
	), fixedNow)
	require.NoError(t, err)
	require.True(t, c.Amounts.Total.Valid)
	assert.Equal(t, "119.00", FormatAmount(c.Amounts.Total.Decimal))
	require.True(t, c.Amounts.Tax.Valid)
	assert.Equal(t, "19.00", FormatAmount(c.Amounts.Tax.Decimal))
}

func TestEngineTotalSkipsSubtotalAndTaxTotalLabels(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		wantTotal string
		wantSub   string
		wantTax   string
	}{
		{
			name:      "hyphenated subtotal",
			lines:     []string{"Invoice Number: INV-1001", "Sub-total 99,14", "VAT 8,02", "Total 107,16"},
			wantTotal: "107.16",
			wantSub:   "99.14",
			wantTax:   "8.02",
		},
		{
			name:      "tax total before total",
			lines:     []string{"Invoice Number: INV-1002", "VAT Total 19,00", "Total 119,00"},
			wantTotal: "119.00",
			wantTax:   "19.00",
		},
		{
			name:      "german tax total is not gesamt",
			lines:     []string{"Rechnungsnummer R-77", "USt. Gesamt 19,00", "Gesamtbetrag 119,00"},
			wantTotal: "119.00",
			wantTax:   "19.00",
		},
		{
			name:    "only a subtotal leaves total absent",
			lines:   []string{"Invoice Number: INV-1003", "Sub-total 99,14"},
			wantSub: "99.14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewEngine().Extract(payloadOf(tt.lines...), fixedNow)
			require.NoError(t, err)
			assertAmount(t, tt.wantTotal, c.Amounts.Total)
			assertAmount(t, tt.wantSub, c.Amounts.Subtotal)
			assertAmount(t, tt.wantTax, c.Amounts.Tax)
		})
	}
}

func TestEngineTaxWithGluedCurrencyCode(t *testing.T) {
	c, err := NewEngine().Extract(payloadOf("Invoice Number: INV-9", "MwSt EUR19,00", "Zahlbetrag 119,00"), fixedNow)
	require.NoError(t, err)
	assertAmount(t, "119.00", c.Amounts.Total)
	assertAmount(t, "19.00", c.Amounts.Tax)
}

func TestEngineCurrencyAndDefault(t *testing.T) {
	c, err := NewEngine().Extract(payloadOf("Factura seria RO-0042", "Total de plata 500,00 RON"), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "RON", c.Currency)
	assert.Equal(t, "500.00", FormatAmount(c.Amounts.Total.Decimal))

	c, err = NewEngine(WithDefaultCurrency("gbp")).Extract(payloadOf("Invoice # A-1"), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "GBP", c.Currency)
}

func TestEngineExtractIsDeterministic(t *testing.T) {
	e := NewEngine()
	p := payloadOf(amazonInvoice...)
	first, err := e.Extract(p, fixedNow)
	require.NoError(t, err)
	second, err := e.Extract(p, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
