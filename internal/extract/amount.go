package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// reAmount finds the first number not glued to a preceding letter, digit or
// separator, either with grouped thousands ("1.234,56", "1,234.56") or plain
// ("107,16"). A currency code or sign may sit directly in front ("EUR107,16").
var reAmount = regexp.MustCompile(`(?:^|[^\p{L}\p{N}.,])(?:(?i:EUR|RON|LEI|USD|GBP)|[€£$])?\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`)

// rePercent strips rates such as "19%" or "0 %" so they are not read as amounts.
var rePercent = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)

// ParseAmount extracts the first amount in text as an exact decimal rounded to
// two places. The last separator is the decimal mark when it is followed by
// one or two trailing digits; every other separator groups thousands, so
// "1.234,56" and "1,234.56" both give 1234.56 and "1.234" gives 1234.
// ok is false when text holds no number; absent is never zero.
func ParseAmount(text string) (decimal.Decimal, bool) {
	m := reAmount.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	return normalizeAmount(m[1])
}

func normalizeAmount(s string) (decimal.Decimal, bool) {
	intPart, frac := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 && len(s)-i-1 <= 2 {
		intPart, frac = s[:i], s[i+1:]
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}

// lineAmount parses the amount on a line after dropping percentage rates.
func lineAmount(text string) (decimal.Decimal, bool) {
	return ParseAmount(rePercent.ReplaceAllString(text, " "))
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
