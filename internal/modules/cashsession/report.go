package cashsession

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/chandab/vansales-backend/internal/money"
)

// Summary is the management rollup over a set of cash sessions. All fields
// are plain sums or counts, so summarising is idempotent and independent of
// input order.
type Summary struct {
	TotalSessions int `json:"total_sessions"`
	OpenCount     int `json:"open_count"`
	ClosedCount   int `json:"closed_count"`
	ApprovedCount int `json:"approved_count"`
	RejectedCount int `json:"rejected_count"`

	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalExpected  decimal.Decimal `json:"total_expected"`
	TotalVariance  decimal.Decimal `json:"total_variance"`

	// AverageAbsVariancePct is the unweighted mean of per-session
	// |variance %| across all sessions (open sessions count as zero). The
	// weighted view over summed totals is AccuracyRate; the two are never
	// mixed into one figure.
	AverageAbsVariancePct decimal.Decimal `json:"average_abs_variance_pct"`

	ShortageCount int             `json:"shortage_count"`
	ShortageTotal decimal.Decimal `json:"shortage_total"`
	OverageCount  int             `json:"overage_count"`
	OverageTotal  decimal.Decimal `json:"overage_total"`

	AccuracyRate decimal.Decimal `json:"accuracy_rate"`
}

// Summarize rolls up sessions for management reporting. It reads only the
// stored session fields (derived totals set at close time) and has no side
// effects. An empty input yields zero counts and a 100% accuracy rate.
func Summarize(sessions []*CashSession) Summary {
	s := Summary{
		TotalCollected: decimal.Zero,
		TotalExpected:  decimal.Zero,
		TotalVariance:  decimal.Zero,
		ShortageTotal:  decimal.Zero,
		OverageTotal:   decimal.Zero,
	}

	absPctSum := decimal.Zero
	for _, session := range sessions {
		s.TotalSessions++
		switch session.Status {
		case StatusOpen:
			s.OpenCount++
		case StatusClosed:
			s.ClosedCount++
		case StatusApproved:
			s.ApprovedCount++
		case StatusRejected:
			s.RejectedCount++
		}

		if session.ActualCash != nil {
			s.TotalCollected = money.Add(s.TotalCollected, *session.ActualCash)
		}
		if session.ExpectedCash != nil {
			s.TotalExpected = money.Add(s.TotalExpected, *session.ExpectedCash)
		}
		if session.VariancePercentage != nil {
			absPctSum = money.Add(absPctSum, session.VariancePercentage.Abs())
		}
		if session.Variance == nil {
			continue
		}
		s.TotalVariance = money.Add(s.TotalVariance, *session.Variance)
		switch {
		case session.Variance.IsNegative():
			s.ShortageCount++
			s.ShortageTotal = money.Add(s.ShortageTotal, session.Variance.Abs())
		case session.Variance.IsPositive():
			s.OverageCount++
			s.OverageTotal = money.Add(s.OverageTotal, *session.Variance)
		}
	}

	if s.TotalSessions > 0 {
		s.AverageAbsVariancePct = absPctSum.Div(decimal.NewFromInt(int64(s.TotalSessions)))
	} else {
		s.AverageAbsVariancePct = decimal.Zero
	}
	s.AccuracyRate = money.AccuracyRate(s.TotalVariance, s.TotalExpected)
	return s
}

// TopVariances returns the sessions with nonzero variance ordered by
// absolute variance, largest first, at most n entries.
func TopVariances(sessions []*CashSession, n int) []*CashSession {
	var withVariance []*CashSession
	for _, s := range sessions {
		if s.Variance != nil && !s.Variance.IsZero() {
			withVariance = append(withVariance, s)
		}
	}
	sort.SliceStable(withVariance, func(i, j int) bool {
		return withVariance[i].Variance.Abs().GreaterThan(withVariance[j].Variance.Abs())
	})
	if n > 0 && len(withVariance) > n {
		withVariance = withVariance[:n]
	}
	return withVariance
}

// DepositSummary is the bank-side rollup shown next to the session summary.
// Deposits never participate in variance; this keeps the gap between what
// was collected and what reached the bank visible.
type DepositSummary struct {
	PendingCount   int             `json:"pending_count"`
	ConfirmedCount int             `json:"confirmed_count"`
	RejectedCount  int             `json:"rejected_count"`
	ConfirmedTotal decimal.Decimal `json:"confirmed_total"`
	PendingTotal   decimal.Decimal `json:"pending_total"`
}

// SummarizeDeposits rolls up a deposit ledger by bank-side status.
func SummarizeDeposits(deposits []*BankDeposit) DepositSummary {
	s := DepositSummary{
		ConfirmedTotal: decimal.Zero,
		PendingTotal:   decimal.Zero,
	}
	for _, d := range deposits {
		switch d.Status {
		case DepositPending:
			s.PendingCount++
			s.PendingTotal = money.Add(s.PendingTotal, d.Amount)
		case DepositConfirmed:
			s.ConfirmedCount++
			s.ConfirmedTotal = money.Add(s.ConfirmedTotal, d.Amount)
		case DepositRejected:
			s.RejectedCount++
		}
	}
	return s
}
