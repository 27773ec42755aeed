package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// Report tallies one batch. Every input lands in exactly one bucket.
type Report struct {
	BatchID    string    `json:"batch_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Successful []Result  `json:"successful"`
	Failed     []Result  `json:"failed"`
	Skipped    []Result  `json:"skipped"`
	Total      int       `json:"total"`
}

func NewReport(batchID string, startedAt time.Time) *Report {
	return &Report{
		BatchID:    batchID,
		StartedAt:  startedAt,
		Successful: []Result{},
		Failed:     []Result{},
		Skipped:    []Result{},
	}
}

func (r *Report) Add(res Result) {
	r.Total++
	switch res.Outcome {
	case constants.OutcomeSuccess:
		r.Successful = append(r.Successful, res)
	case constants.OutcomeSkipped:
		r.Skipped = append(r.Skipped, res)
	default:
		res.Outcome = constants.OutcomeFailed
		r.Failed = append(r.Failed, res)
	}
}

func (r *Report) Finish(at time.Time) {
	r.FinishedAt = at
}

// Validate checks that the buckets partition the inputs.
func (r *Report) Validate() error {
	if n := len(r.Successful) + len(r.Failed) + len(r.Skipped); n != r.Total {
		return fmt.Errorf("report buckets hold %d results, total is %d", n, r.Total)
	}
	for bucket, results := range map[constants.Outcome][]Result{
		constants.OutcomeSuccess: r.Successful,
		constants.OutcomeFailed:  r.Failed,
		constants.OutcomeSkipped: r.Skipped,
	} {
		for _, res := range results {
			if res.Outcome != bucket {
				return fmt.Errorf("%s result in %s bucket", res.Outcome, bucket)
			}
		}
	}
	return nil
}

type Summary struct {
	Total       int             `json:"total"`
	Successful  int             `json:"successful"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	SuccessRate float64         `json:"success_rate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Relinked    int             `json:"relinked"`
	Duration    time.Duration   `json:"duration"`
}

// Summary sums the totals of successful invoices. Absent totals add nothing.
// SuccessRate is a percentage of all inputs.
func (r *Report) Summary() Summary {
	s := Summary{
		Total:       r.Total,
		Successful:  len(r.Successful),
		Failed:      len(r.Failed),
		Skipped:     len(r.Skipped),
		TotalAmount: decimal.Zero,
	}
	if r.Total > 0 {
		s.SuccessRate = float64(s.Successful) / float64(r.Total) * 100
	}
	for _, res := range r.Successful {
		if res.Total.Valid {
			s.TotalAmount = s.TotalAmount.Add(res.Total.Decimal)
		}
		if res.Relinked {
			s.Relinked++
		}
	}
	if !r.FinishedAt.IsZero() {
		s.Duration = r.FinishedAt.Sub(r.StartedAt)
	}
	return s
}
