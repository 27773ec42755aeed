package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeRules = `
invoice_numbers:
  - name: acme-serial
    priority: 5
    pattern: 'ACME-\d{6}'
currencies:
  - name: CHF
    priority: 5
    pattern: '\bCHF\b'
parties:
  - name: acme
    priority: 5
    signature: 'ACME AG'
    display_name: 'ACME AG'
    vat: CHE-123.456.789
    supplier: true
labels:
  subtotal: ['\bNetto\b']
`

func TestLoadRuleFileExtendsEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(acmeRules), 0o600))

	rf, err := LoadRuleFile(path)
	require.NoError(t, err)
	require.Len(t, rf.InvoiceNumbers, 1)
	require.Len(t, rf.Parties, 1)

	base := NewEngine()
	e, err := base.Extend(rf)
	require.NoError(t, err)

	p := payloadOf("ACME AG", "Invoice No. 7788 ref ACME-123456", "Netto 80,00", "Total CHF 80,00")
	c, err := e.Extract(p, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "ACME-123456", c.InvoiceNumber)
	assert.Equal(t, "acme-serial", c.NumberRule)
	assert.Equal(t, "CHF", c.Currency)
	assert.Equal(t, "ACME AG", c.Supplier.Name)
	assert.Equal(t, "CHE-123.456.789", c.Supplier.VATNumber)
	assertAmount(t, "80.00", c.Amounts.Subtotal)

	// the base engine is untouched
	c, err = base.Extract(p, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "7788", c.InvoiceNumber)
	assert.False(t, c.Supplier.Known)
}

func TestParseRuleFileRejectsUnknownKeys(t *testing.T) {
	_, err := ParseRuleFile([]byte("invoice_number:\n  - name: typo\n"))
	assert.Error(t, err)
}

func TestExtendRejectsBadRule(t *testing.T) {
	rf, err := ParseRuleFile([]byte("totals:\n  - name: broken\n    pattern: '('\n"))
	require.NoError(t, err)
	_, err = NewEngine().Extend(rf)
	assert.Error(t, err)
}

func TestLoadRuleFileMissing(t *testing.T) {
	_, err := LoadRuleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
