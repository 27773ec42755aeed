package extract

import (
	"fmt"
	"regexp"
	"sort"
)

// Rule is one pattern of a rule set. Lower Priority is tried first; equal
// priorities keep the order they were added in. If the pattern has a capture
// group the first group is the match value, otherwise the whole match is.
type Rule struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Pattern  string `yaml:"pattern"`
	// Locale tags date rules with the month table to parse with (de, en, ro).
	Locale string `yaml:"locale,omitempty"`

	re  *regexp.Regexp
	seq int
}

// Match is the value found by a rule set.
type Match struct {
	Rule   string
	Locale string
	Value  string
}

// RuleSet is an ordered list of rules for one field. Matching is case-insensitive.
type RuleSet struct {
	field string
	rules []Rule
	next  int
}

func NewRuleSet(field string, rules ...Rule) (*RuleSet, error) {
	s := &RuleSet{field: field}
	if err := s.Add(rules...); err != nil {
		return nil, err
	}
	return s, nil
}

func MustRuleSet(field string, rules ...Rule) *RuleSet {
	s, err := NewRuleSet(field, rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add compiles and inserts rules, keeping the set sorted by priority.
func (s *RuleSet) Add(rules ...Rule) error {
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return fmt.Errorf("%s rule %q: %w", s.field, r.Name, err)
		}
		r.re = re
		r.seq = s.next
		s.next++
		s.rules = append(s.rules, r)
	}
	sort.SliceStable(s.rules, func(i, j int) bool {
		if s.rules[i].Priority != s.rules[j].Priority {
			return s.rules[i].Priority < s.rules[j].Priority
		}
		return s.rules[i].seq < s.rules[j].seq
	})
	return nil
}

// Find tries the rules in priority order against text. The first rule that
// matches anywhere wins; later rules are not consulted.
func (s *RuleSet) Find(text string) (Match, bool) {
	return s.FindFunc(text, nil)
}

// FindFunc is Find with a veto. accept sees the text preceding a match and
// may reject it; the rule's later matches are tried next, then later rules.
func (s *RuleSet) FindFunc(text string, accept func(before string) bool) (Match, bool) {
	if s == nil || text == "" {
		return Match{}, false
	}
	for _, r := range s.rules {
		for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
			if accept != nil && !accept(text[:loc[0]]) {
				continue
			}
			v := text[loc[0]:loc[1]]
			if len(loc) > 3 {
				v = ""
				if loc[2] >= 0 {
					v = text[loc[2]:loc[3]]
				}
			}
			return Match{Rule: r.Name, Locale: r.Locale, Value: v}, true
		}
	}
	return Match{}, false
}

// Names lists rule names in the order they are tried.
func (s *RuleSet) Names() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Name
	}
	return out
}

func (s *RuleSet) Field() string { return s.field }

// Clone returns an independent copy that can be extended without touching s.
func (s *RuleSet) Clone() *RuleSet {
	c := &RuleSet{field: s.field, next: s.next}
	c.rules = append(c.rules, s.rules...)
	return c
}
