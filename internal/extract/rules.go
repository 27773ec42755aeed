package extract

import "fmt"

// Rule priorities leave gaps so rule files can slot vendor patterns between defaults.

// identifier requires at least one digit so labels followed by a word do not capture it.
const identifier = `([A-Z0-9][A-Z0-9\-\/]*\d[A-Z0-9\-\/]*)`

// amountCapture grabs the raw number after a label; ParseAmount does the rest.
const amountCapture = `([0-9][0-9.,]*)`

func DefaultInvoiceNumberRules() []Rule {
	return []Rule{
		{Name: "amazon-eu-serial", Priority: 10, Pattern: `AEU-INV-[A-Z]{2}-\d{4}-\d+`},
		{Name: "de-rechnungsnummer", Priority: 100, Pattern: `Rechnungsnummer[\s:.]*` + identifier},
		{Name: "en-invoice-number", Priority: 110, Pattern: `Invoice\s*(?:Number|Nr\.?|No\.?|#)?[\s:.]*` + identifier},
		{Name: "ro-factura-nr", Priority: 120, Pattern: `Factur[aă]\s*(?:fiscal[aă]\s*)?(?:Nr\.?|seria)?[\s:.]*` + identifier},
	}
}

func DefaultDateRules() []Rule {
	return []Rule{
		{Name: "de-rechnungsdatum-month", Priority: 10, Locale: "de",
			Pattern: fmt.Sprintf(`Rechnungsdatum[\s\S]*?(\d{1,2}\.?\s*(?:%s)\.?\s*\d{4})`, monthAlternation(GermanMonths))},
		{Name: "de-rechnungsdatum-numeric", Priority: 20, Locale: "de",
			Pattern: `Rechnungsdatum[\s:]*(\d{1,2}\.\d{1,2}\.\d{4})`},
		{Name: "en-invoice-date-numeric", Priority: 30, Locale: "en",
			Pattern: `Invoice\s*Date[\s:]*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{4})`},
		{Name: "en-invoice-date-month", Priority: 40, Locale: "en",
			Pattern: fmt.Sprintf(`Invoice\s*Date[\s:]*(\d{1,2}\s*(?:%s),?\s*\d{4})`, monthAlternation(EnglishMonths))},
		{Name: "ro-data-facturii", Priority: 50, Locale: "ro",
			Pattern: `Data\s*(?:facturii|emiterii)[\s:]*(\d{1,2}[\/\-\.]\d{1,2}[\/\-\.]\d{4})`},
		{Name: "iso-labeled", Priority: 90,
			Pattern: `(?:Invoice\s*Date|Rechnungsdatum|Data\s*facturii)[\s:]*(\d{4}-\d{1,2}-\d{1,2})`},
	}
}

func DefaultTotalRules() []Rule {
	return []Rule{
		{Name: "de-zahlbetrag", Priority: 10, Pattern: `Zahlbetrag[\s:]*€?\s*` + amountCapture},
		{Name: "ro-total-de-plata", Priority: 20, Pattern: `Total\s+de\s+plat[aă][\s:]*(?:RON|LEI|EUR|€)?\s*` + amountCapture},
		{Name: "total", Priority: 30, Pattern: `\bTotal[\s:]*€?\s*` + amountCapture},
		{Name: "de-gesamt", Priority: 40, Pattern: `\bGesamt(?:betrag)?[\s:]*€?\s*` + amountCapture},
	}
}

// DefaultCurrencyRules name each rule after the ISO code it detects.
func DefaultCurrencyRules() []Rule {
	return []Rule{
		{Name: "EUR", Priority: 10, Pattern: `€|\bEUR\b`},
		{Name: "RON", Priority: 20, Pattern: `\bRON\b|\blei\b`},
		{Name: "GBP", Priority: 30, Pattern: `£|\bGBP\b`},
		{Name: "USD", Priority: 40, Pattern: `US\$|\bUSD\b`},
	}
}

func DefaultLabelTokens() LabelTokens {
	return LabelTokens{
		Subtotal: []string{`\bZwischensumme\b`, `\bSub-?total\b`, `\bNettobetrag\b`},
		Tax:      []string{`\bUSt\b`, `\bMwSt\b`, `\bVAT\b`, `\bTVA\b`, `\bTax\b`},
		TaxTotal: []string{
			`\b(?:USt|MwSt)\.?\s*Gesamt\b`,
			`\bTotal\s+(?:VAT|TVA|Tax)\b`,
			`\b(?:VAT|TVA|Tax)\s+Total\b`,
		},
		TaxID: []string{
			`\bUSt-?Id`,
			`\bVAT\s*(?:No|Nr|Number|ID|Reg)`,
			`\bCod\s+(?:TVA|fiscal)`,
			`\bCIF\b`,
			`\bTax\s*ID\b`,
		},
		NotTotal: []string{
			`\bSub-?`,
			`\b(?:VAT|TVA|Tax|USt|MwSt)\.?`,
		},
	}
}

func DefaultPartyRules() []PartyRule {
	return []PartyRule{
		{
			Name:        "amazon-eu",
			Priority:    10,
			Signature:   `Amazon`,
			DisplayName: "Amazon EU S.à r.l.",
			VATPatterns: []string{`IT08973230967`, `USt-IDNr\.[\s:]*([A-Z]{2}[0-9]+)`},
			Supplier:    true,
		},
		{
			Name:        "sensidev",
			Priority:    10,
			Signature:   `SENSIDEV`,
			DisplayName: "SC SENSIDEV SRL",
			VAT:         "RO30428638",
			Customer:    true,
		},
	}
}
