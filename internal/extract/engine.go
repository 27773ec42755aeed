package extract

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

// ErrNoInvoiceNumber is fatal for a document: the number is the idempotency key.
var ErrNoInvoiceNumber = errors.New("no invoice number found")

// State is a step of one extraction pass.
type State string

const (
	StateNew             State = "NEW"
	StateFlattened       State = "FLATTENED"
	StateNumberFound     State = "NUMBER_FOUND"
	StateNumberMissing   State = "NUMBER_MISSING"
	StateAmountsResolved State = "AMOUNTS_RESOLVED"
	StatePartiesResolved State = "PARTIES_RESOLVED"
	StateCandidateReady  State = "CANDIDATE_READY"
)

// ExtractionError reports where an extraction pass stopped.
type ExtractionError struct {
	State State
	Err   error
}

func (e *ExtractionError) Error() string { return e.Err.Error() }
func (e *ExtractionError) Unwrap() error { return e.Err }

// Amounts holds the monetary fields. Each is absent unless found; they are not
// required to add up.
type Amounts struct {
	Subtotal decimal.NullDecimal
	Tax      decimal.NullDecimal
	Total    decimal.NullDecimal
}

// Candidate is the structured result of one extraction pass.
type Candidate struct {
	InvoiceNumber    string
	NumberRule       string
	InvoiceDate      time.Time
	DateFromFallback bool
	Supplier         PartyHint
	Customer         PartyHint
	Amounts          Amounts
	Currency         string
	Pages            int
	Lines            int
	State            State

	numberConfidence *float64
}

// Field is one extracted name/value pair for the audit trail.
type Field struct {
	Name       string
	Value      string
	Confidence *float64
}

// Fields lists the values worth auditing; absent amounts are left out.
func (c *Candidate) Fields() []Field {
	out := []Field{
		{Name: "invoice_number", Value: c.InvoiceNumber, Confidence: c.numberConfidence},
		{Name: "supplier_name", Value: c.Supplier.Name},
		{Name: "supplier_vat", Value: c.Supplier.VATNumber},
		{Name: "customer_name", Value: c.Customer.Name},
		{Name: "customer_vat", Value: c.Customer.VATNumber},
		{Name: "currency", Value: c.Currency},
	}
	if !c.DateFromFallback {
		out = append(out, Field{Name: "invoice_date", Value: c.InvoiceDate.Format("2006-01-02")})
	}
	for _, a := range []struct {
		name string
		v    decimal.NullDecimal
	}{
		{"subtotal", c.Amounts.Subtotal},
		{"tax_amount", c.Amounts.Tax},
		{"total_amount", c.Amounts.Total},
	} {
		if a.v.Valid {
			out = append(out, Field{Name: a.name, Value: FormatAmount(a.v.Decimal)})
		}
	}
	return out
}

// Engine composes flattening, rule matching and normalization into one pass.
// It does no I/O and is safe for concurrent use once built.
type Engine struct {
	numbers         *RuleSet
	dates           *RuleSet
	totals          *RuleSet
	currencies      *RuleSet
	labels          *AmountLabels
	parties         *PartyTable
	defaultCurrency string
	logger          *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithDefaultCurrency(code string) Option {
	return func(e *Engine) {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			e.defaultCurrency = code
		}
	}
}

// NewEngine builds an engine with the default rule tables.
func NewEngine(opts ...Option) *Engine {
	labels, err := NewAmountLabels(DefaultLabelTokens())
	if err != nil {
		panic(err)
	}
	parties, err := NewPartyTable(DefaultPartyRules()...)
	if err != nil {
		panic(err)
	}
	e := &Engine{
		numbers:         MustRuleSet("invoice_number", DefaultInvoiceNumberRules()...),
		dates:           MustRuleSet("invoice_date", DefaultDateRules()...),
		totals:          MustRuleSet("total", DefaultTotalRules()...),
		currencies:      MustRuleSet("currency", DefaultCurrencyRules()...),
		labels:          labels,
		parties:         parties,
		defaultCurrency: constants.DefaultCurrency,
		logger:          slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract runs one pass over the payload. now supplies the invoice date when
// none can be parsed. The only error is ErrNoInvoiceNumber, wrapped in an
// *ExtractionError; every other field degrades to absent.
func (e *Engine) Extract(p *ocr.Payload, now time.Time) (*Candidate, error) {
	c := &Candidate{State: StateNew}
	if p != nil {
		c.Pages = len(p.Pages)
	}

	lines, full := ocr.Flatten(p)
	c.Lines = len(lines)
	c.State = StateFlattened

	m, ok := e.numbers.Find(full)
	number := strings.TrimSpace(m.Value)
	if !ok || number == "" {
		c.State = StateNumberMissing
		e.logger.Debug("extract.number.missing", "lines", c.Lines, "pages", c.Pages)
		return nil, &ExtractionError{State: c.State, Err: ErrNoInvoiceNumber}
	}
	c.InvoiceNumber, c.NumberRule = number, m.Rule
	c.numberConfidence = confidenceOf(lines, number)
	c.State = StateNumberFound

	if dm, ok := e.dates.Find(full); ok {
		if t, ok := ParseDate(dm.Value, MonthTables[dm.Locale]); ok {
			c.InvoiceDate = t
		}
	}
	if c.InvoiceDate.IsZero() {
		n := now.UTC()
		c.InvoiceDate = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
		c.DateFromFallback = true
	}

	// total first: the tax heuristic compares against it
	if tm, ok := e.totals.FindFunc(full, e.labels.TotalLabel); ok {
		if v, ok := ParseAmount(tm.Value); ok {
			c.Amounts.Total = decimal.NewNullDecimal(v)
		}
	}
	c.Amounts.Subtotal, c.Amounts.Tax = e.labels.Resolve(lines, c.Amounts.Total)
	c.Currency = e.defaultCurrency
	if cm, ok := e.currencies.Find(full); ok {
		c.Currency = cm.Rule
	}
	c.State = StateAmountsResolved

	c.Supplier = e.parties.Resolve(constants.RoleSupplier, full)
	c.Customer = e.parties.Resolve(constants.RoleCustomer, full)
	c.State = StatePartiesResolved

	c.State = StateCandidateReady
	e.logger.Debug("extract.candidate",
		"invoice_number", c.InvoiceNumber,
		"rule", c.NumberRule,
		"date_fallback", c.DateFromFallback,
		"total", c.Amounts.Total,
		"supplier", c.Supplier.Name,
		"customer", c.Customer.Name,
	)
	return c, nil
}

// confidenceOf returns the confidence of the first line containing value.
func confidenceOf(lines []ocr.TextLine, value string) *float64 {
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l.Text), strings.ToLower(value)) {
			v := l.Confidence
			return &v
		}
	}
	return nil
}
