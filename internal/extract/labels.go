package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

// LabelTokens are the per-line label patterns used to find subtotal and tax.
type LabelTokens struct {
	Subtotal []string `yaml:"subtotal"`
	Tax      []string `yaml:"tax"`
	TaxTotal []string `yaml:"tax_total"`
	// TaxID lines carry an identifier such as "USt-IdNr.", not an amount.
	TaxID []string `yaml:"tax_id"`
	// NotTotal are words that, directly before a total label, make it a
	// subtotal or tax total ("Sub-total", "VAT Total", "USt. Gesamt").
	NotTotal []string `yaml:"not_total"`
}

// AmountLabels is the compiled form of LabelTokens.
type AmountLabels struct {
	tokens   LabelTokens
	subtotal *regexp.Regexp
	tax      *regexp.Regexp
	taxTotal *regexp.Regexp
	taxID    *regexp.Regexp
	notTotal *regexp.Regexp
}

var reZeroAmount = regexp.MustCompile(`(?:^|[^\d.,])0[.,]00(?:[^\d]|$)`)

func NewAmountLabels(t LabelTokens) (*AmountLabels, error) {
	l := &AmountLabels{tokens: t}
	var err error
	if l.subtotal, err = alternation("subtotal", t.Subtotal); err != nil {
		return nil, err
	}
	if l.tax, err = alternation("tax", t.Tax); err != nil {
		return nil, err
	}
	if l.taxTotal, err = alternation("tax_total", t.TaxTotal); err != nil {
		return nil, err
	}
	if l.taxID, err = alternation("tax_id", t.TaxID); err != nil {
		return nil, err
	}
	if len(t.NotTotal) > 0 {
		if l.notTotal, err = regexp.Compile(`(?i)(?:` + strings.Join(t.NotTotal, "|") + `)\s*$`); err != nil {
			return nil, fmt.Errorf("not_total labels: %w", err)
		}
	}
	return l, nil
}

// Extend returns labels with extra tokens appended to each group.
func (l *AmountLabels) Extend(extra LabelTokens) (*AmountLabels, error) {
	t := LabelTokens{
		Subtotal: append(append([]string{}, l.tokens.Subtotal...), extra.Subtotal...),
		Tax:      append(append([]string{}, l.tokens.Tax...), extra.Tax...),
		TaxTotal: append(append([]string{}, l.tokens.TaxTotal...), extra.TaxTotal...),
		TaxID:    append(append([]string{}, l.tokens.TaxID...), extra.TaxID...),
		NotTotal: append(append([]string{}, l.tokens.NotTotal...), extra.NotTotal...),
	}
	return NewAmountLabels(t)
}

func alternation(group string, patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)(?:" + strings.Join(patterns, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("%s labels: %w", group, err)
	}
	return re, nil
}

// TotalLabel reports whether a total label preceded by before really names the
// invoice total. Only the last few words of before are looked at.
func (l *AmountLabels) TotalLabel(before string) bool {
	if l.notTotal == nil {
		return true
	}
	if len(before) > 24 {
		before = before[len(before)-24:]
	}
	return !l.notTotal.MatchString(before)
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

// Resolve scans lines in document order for subtotal and tax. The first
// accepted line wins for each.
//
// Tax depends on total, so total must be resolved before calling: a
// tax-total line with an explicit 0,00 fixes tax at zero, and any other tax
// line is accepted only when its amount is strictly below total. Without a
// total only the zero marker can set tax. Subtotal lines must not also carry
// a tax label. Neither amount is ever derived from the others.
func (l *AmountLabels) Resolve(lines []ocr.TextLine, total decimal.NullDecimal) (subtotal, tax decimal.NullDecimal) {
	for _, line := range lines {
		text := line.Text
		hasTax := matches(l.tax, text)

		if !subtotal.Valid && matches(l.subtotal, text) && !hasTax {
			if v, ok := lineAmount(text); ok {
				subtotal = decimal.NewNullDecimal(v)
			}
		}

		if tax.Valid || matches(l.taxID, text) {
			continue
		}
		taxTotal := matches(l.taxTotal, text)
		if taxTotal && reZeroAmount.MatchString(text) {
			tax = decimal.NewNullDecimal(decimal.New(0, -2))
			continue
		}
		if (taxTotal || hasTax) && total.Valid {
			if v, ok := lineAmount(text); ok && v.LessThan(total.Decimal) {
				tax = decimal.NewNullDecimal(v)
			}
		}
	}
	return subtotal, tax
}
