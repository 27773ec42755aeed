package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// MonthTable maps lowercased localized month names to month numbers.
type MonthTable map[string]time.Month

var (
	GermanMonths = MonthTable{
		"januar": time.January, "jänner": time.January, "februar": time.February,
		"märz": time.March, "maerz": time.March, "april": time.April, "mai": time.May,
		"juni": time.June, "juli": time.July, "august": time.August,
		"september": time.September, "oktober": time.October,
		"november": time.November, "dezember": time.December,
	}
	RomanianMonths = MonthTable{
		"ianuarie": time.January, "februarie": time.February, "martie": time.March,
		"aprilie": time.April, "mai": time.May, "iunie": time.June, "iulie": time.July,
		"august": time.August, "septembrie": time.September, "octombrie": time.October,
		"noiembrie": time.November, "decembrie": time.December,
	}
	EnglishMonths = MonthTable{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June, "july": time.July,
		"august": time.August, "september": time.September, "october": time.October,
		"november": time.November, "december": time.December,
	}
)

// MonthTables indexes the tables by the locale tag used on date rules.
var MonthTables = map[string]MonthTable{
	"de": GermanMonths,
	"ro": RomanianMonths,
	"en": EnglishMonths,
}

// DateLayouts are tried in order after the month-name pass.
var DateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
}

var (
	reDay  = regexp.MustCompile(`\b(\d{1,2})\b`)
	reYear = regexp.MustCompile(`\b(\d{4})\b`)
)

// ParseDate parses a labeled date fragment. With a month table it first looks
// for a localized month name and takes the first one- or two-digit group as
// the day and the first four-digit group as the year; then it falls back to
// DateLayouts. ok is false when nothing parses; callers decide any fallback.
func ParseDate(text string, months MonthTable) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if months != nil {
		if t, ok := parseMonthName(text, months); ok {
			return t, true
		}
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseMonthName(text string, months MonthTable) (time.Time, bool) {
	month, found := time.Month(0), false
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		if m, ok := months[word]; ok {
			month, found = m, true
			break
		}
	}
	if !found {
		return time.Time{}, false
	}
	dm := reDay.FindStringSubmatch(text)
	ym := reYear.FindStringSubmatch(text)
	if dm == nil || ym == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dm[1])
	year, _ := strconv.Atoi(ym[1])
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow; 31 November is not a date.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// monthAlternation builds a regexp alternation of the table's month names, longest first.
func monthAlternation(tables ...MonthTable) string {
	seen := map[string]struct{}{}
	var names []string
	for _, t := range tables {
		for name := range t {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, regexp.QuoteMeta(name))
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}
