package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "comma decimal", input: "107,16", want: "107.16", wantOK: true},
		{name: "dot decimal", input: "107.16", want: "107.16", wantOK: true},
		{name: "german thousands", input: "1.234,56", want: "1234.56", wantOK: true},
		{name: "english thousands", input: "1,234.56", want: "1234.56", wantOK: true},
		{name: "grouped without decimals", input: "1.234", want: "1234", wantOK: true},
		{name: "zero is a value", input: "0,00", want: "0", wantOK: true},
		{name: "single fraction digit", input: "12,5", want: "12.5", wantOK: true},
		{name: "currency around number", input: "€ 99,14 EUR", want: "99.14", wantOK: true},
		{name: "first number wins", input: "12,00 then 30,00", want: "12", wantOK: true},
		{name: "digits glued to letters are skipped", input: "RO30428638 total 5,00", want: "5", wantOK: true},
		{name: "glued currency code", input: "EUR107,16", want: "107.16", wantOK: true},
		{name: "glued code after label", input: "MwSt EUR19,00", want: "19", wantOK: true},
		{name: "glued currency sign", input: "Total:€1.234,56", want: "1234.56", wantOK: true},
		{name: "three digits after comma group thousands", input: "12,345", want: "12345", wantOK: true},
		{name: "fraction glued to other letters is not an amount", input: "ABC12,50", wantOK: false},
		{name: "no number", input: "Zahlbetrag", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestLineAmountIgnoresRates(t *testing.T) {
	got, ok := lineAmount("USt. 19% 12,34")
	require.True(t, ok)
	assert.Equal(t, "12.34", FormatAmount(got))

	_, ok = lineAmount("MwSt 19 %")
	assert.False(t, ok)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "107.16", FormatAmount(decimal.RequireFromString("107.16")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
	assert.Equal(t, "1234.50", FormatAmount(decimal.RequireFromString("1234.5")))
}
