package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

// PartyRule identifies a known issuer or recipient from a signature in the
// document text. The VAT number is either fixed or taken from the first
// matching VATPatterns entry. Supplier and Customer say which sides of an
// invoice the rule may resolve.
type PartyRule struct {
	Name        string   `yaml:"name"`
	Priority    int      `yaml:"priority"`
	Signature   string   `yaml:"signature"`
	DisplayName string   `yaml:"display_name"`
	VAT         string   `yaml:"vat,omitempty"`
	VATPatterns []string `yaml:"vat_patterns,omitempty"`
	Supplier    bool     `yaml:"supplier"`
	Customer    bool     `yaml:"customer"`

	sig  *regexp.Regexp
	vats *RuleSet
	seq  int
}

func (r *PartyRule) serves(role constants.PartyRole) bool {
	switch role {
	case constants.RoleSupplier:
		return r.Supplier
	case constants.RoleCustomer:
		return r.Customer
	}
	return false
}

// PartyHint is the resolved identity for one side of the invoice.
type PartyHint struct {
	entity.PartyIdentity
	Rule  string
	Known bool
}

// PartyTable is the pluggable lookup of known parties.
type PartyTable struct {
	rules []PartyRule
	next  int
}

func NewPartyTable(rules ...PartyRule) (*PartyTable, error) {
	t := &PartyTable{}
	if err := t.Add(rules...); err != nil {
		return nil, err
	}
	return t, nil
}

// Add compiles rules into the table. Signatures are case-sensitive.
func (t *PartyTable) Add(rules ...PartyRule) error {
	for _, r := range rules {
		if r.Signature == "" || r.DisplayName == "" {
			return fmt.Errorf("party rule %q: signature and display_name are required", r.Name)
		}
		if !r.Supplier && !r.Customer {
			return fmt.Errorf("party rule %q: must serve supplier or customer", r.Name)
		}
		sig, err := regexp.Compile(r.Signature)
		if err != nil {
			return fmt.Errorf("party rule %q: %w", r.Name, err)
		}
		r.sig = sig
		if len(r.VATPatterns) > 0 {
			vats := make([]Rule, len(r.VATPatterns))
			for i, p := range r.VATPatterns {
				vats[i] = Rule{Name: fmt.Sprintf("%s-vat-%d", r.Name, i+1), Priority: i, Pattern: p}
			}
			if r.vats, err = NewRuleSet(r.Name+" vat", vats...); err != nil {
				return err
			}
		}
		r.seq = t.next
		t.next++
		t.rules = append(t.rules, r)
	}
	sort.SliceStable(t.rules, func(i, j int) bool {
		if t.rules[i].Priority != t.rules[j].Priority {
			return t.rules[i].Priority < t.rules[j].Priority
		}
		return t.rules[i].seq < t.rules[j].seq
	})
	return nil
}

// Resolve returns the first rule serving role whose signature occurs in text.
// Without a match the hint is the unknown party for that role.
func (t *PartyTable) Resolve(role constants.PartyRole, text string) PartyHint {
	if t != nil {
		for i := range t.rules {
			r := &t.rules[i]
			if !r.serves(role) || !r.sig.MatchString(text) {
				continue
			}
			vat := r.VAT
			if vat == "" && r.vats != nil {
				if m, ok := r.vats.Find(text); ok {
					vat = strings.ToUpper(strings.TrimSpace(m.Value))
				}
			}
			if vat == "" {
				vat = constants.UnknownVAT
			}
			return PartyHint{
				PartyIdentity: entity.PartyIdentity{Name: r.DisplayName, VATNumber: vat},
				Rule:          r.Name,
				Known:         true,
			}
		}
	}
	return UnknownParty(role)
}

func (t *PartyTable) Clone() *PartyTable {
	c := &PartyTable{next: t.next}
	c.rules = append(c.rules, t.rules...)
	return c
}

// UnknownParty is the placeholder identity used when no rule matches.
func UnknownParty(role constants.PartyRole) PartyHint {
	name := constants.UnknownSupplierName
	if role == constants.RoleCustomer {
		name = constants.UnknownCustomerName
	}
	return PartyHint{PartyIdentity: entity.PartyIdentity{Name: name, VATNumber: constants.UnknownVAT}}
}
