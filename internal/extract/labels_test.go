package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

func textLines(texts ...string) []ocr.TextLine {
	out := make([]ocr.TextLine, len(texts))
	for i, t := range texts {
		out[i] = ocr.TextLine{Text: t, Page: 1}
	}
	return out
}

func TestAmountLabelsResolve(t *testing.T) {
	labels, err := NewAmountLabels(DefaultLabelTokens())
	require.NoError(t, err)
	total := decimal.NewNullDecimal(decimal.RequireFromString("119.00"))

	tests := []struct {
		name         string
		lines        []string
		total        decimal.NullDecimal
		wantSubtotal string
		wantTax      string
	}{
		{
			name:         "subtotal and tax",
			lines:        []string{"Zwischensumme 100,00", "MwSt 19% 19,00"},
			total:        total,
			wantSubtotal: "100.00",
			wantTax:      "19.00",
		},
		{
			name:    "zero tax total needs no total",
			lines:   []string{"USt. Gesamt 0,00 €"},
			wantTax: "0.00",
		},
		{
			name:  "tax without total is not trusted",
			lines: []string{"VAT 19,00"},
		},
		{
			name:    "tax not below total is rejected",
			lines:   []string{"VAT 119,00", "VAT 19,00"},
			total:   total,
			wantTax: "19.00",
		},
		{
			name:  "tax id lines are not amounts",
			lines: []string{"USt-IdNr. 12345", "VAT No. 99887766"},
			total: total,
		},
		{
			name:         "subtotal line with a tax label is skipped",
			lines:        []string{"Subtotal excl. VAT 50,00", "Sub-total 100,00"},
			total:        total,
			wantSubtotal: "100.00",
			wantTax:      "50.00",
		},
		{
			name:         "first accepted line wins",
			lines:        []string{"Subtotal 10,00", "Subtotal 20,00", "Tax 1,00", "Tax 2,00"},
			total:        total,
			wantSubtotal: "10.00",
			wantTax:      "1.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, tax := labels.Resolve(textLines(tt.lines...), tt.total)
			assertAmount(t, tt.wantSubtotal, sub)
			assertAmount(t, tt.wantTax, tax)
		})
	}
}

func assertAmount(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, "expected absent amount, got %s", got.Decimal)
		return
	}
	require.True(t, got.Valid, "expected %s, got absent", want)
	assert.Equal(t, want, FormatAmount(got.Decimal))
}

func TestAmountLabelsExtend(t *testing.T) {
	labels, err := NewAmountLabels(DefaultLabelTokens())
	require.NoError(t, err)
	extended, err := labels.Extend(LabelTokens{Subtotal: []string{`\bNetto\b`}})
	require.NoError(t, err)

	sub, _ := labels.Resolve(textLines("Netto 80,00"), decimal.NullDecimal{})
	assert.False(t, sub.Valid)
	sub, _ = extended.Resolve(textLines("Netto 80,00"), decimal.NullDecimal{})
	assertAmount(t, "80.00", sub)
}

func TestAmountLabelsTotalLabel(t *testing.T) {
	labels, err := NewAmountLabels(DefaultLabelTokens())
	require.NoError(t, err)

	tests := []struct {
		before string
		want   bool
	}{
		{before: "", want: true},
		{before: "Invoice INV-1 ", want: true},
		{before: "VAT 8,02 ", want: true},
		{before: "Sub-", want: false},
		{before: "Invoice INV-1 VAT ", want: false},
		{before: "Rechnungsnummer R-77 USt. ", want: false},
		{before: "tva ", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, labels.TotalLabel(tt.before), "before %q", tt.before)
	}

	ext, err := labels.Extend(LabelTokens{NotTotal: []string{`\bNetto`}})
	require.NoError(t, err)
	assert.False(t, ext.TotalLabel("Netto "))
	assert.True(t, labels.TotalLabel("Netto "))
}
