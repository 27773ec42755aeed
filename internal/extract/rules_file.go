package extract

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleFile adds vendor rules to the built-in tables without code changes.
//
//	invoice_numbers:
//	  - name: acme-serial
//	    priority: 20
//	    pattern: 'ACME-\d{6}'
//	parties:
//	  - name: acme
//	    signature: 'ACME GmbH'
//	    display_name: 'ACME GmbH'
//	    vat: DE123456789
//	    supplier: true
type RuleFile struct {
	InvoiceNumbers []Rule      `yaml:"invoice_numbers"`
	Dates          []Rule      `yaml:"dates"`
	Totals         []Rule      `yaml:"totals"`
	Currencies     []Rule      `yaml:"currencies"`
	Labels         LabelTokens `yaml:"labels"`
	Parties        []PartyRule `yaml:"parties"`
}

func LoadRuleFile(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return ParseRuleFile(data)
}

// ParseRuleFile rejects unknown keys so typos do not silently drop rules.
func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	return &rf, nil
}

// Extend returns a copy of the engine with the file's rules merged in.
func (e *Engine) Extend(rf *RuleFile) (*Engine, error) {
	if rf == nil {
		return e, nil
	}
	out := *e
	out.numbers = e.numbers.Clone()
	out.dates = e.dates.Clone()
	out.totals = e.totals.Clone()
	out.currencies = e.currencies.Clone()
	out.parties = e.parties.Clone()

	for _, add := range []struct {
		set   *RuleSet
		rules []Rule
	}{
		{out.numbers, rf.InvoiceNumbers},
		{out.dates, rf.Dates},
		{out.totals, rf.Totals},
		{out.currencies, rf.Currencies},
	} {
		if err := add.set.Add(add.rules...); err != nil {
			return nil, err
		}
	}
	if err := out.parties.Add(rf.Parties...); err != nil {
		return nil, err
	}
	labels, err := e.labels.Extend(rf.Labels)
	if err != nil {
		return nil, err
	}
	out.labels = labels
	return &out, nil
}
