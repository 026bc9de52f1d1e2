package cashsession

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedSession(t *testing.T, expected, actual string) *CashSession {
	t.Helper()
	exp, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	act, err := decimal.NewFromString(actual)
	require.NoError(t, err)
	variance := act.Sub(exp)
	pct := decimal.Zero
	if !exp.IsZero() {
		pct = variance.Div(exp).Mul(decimal.NewFromInt(100))
	}
	return &CashSession{
		Status:             StatusClosed,
		ExpectedCash:       &exp,
		ActualCash:         &act,
		Variance:           &variance,
		VariancePercentage: &pct,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalSessions)
	assert.True(t, s.TotalCollected.IsZero())
	assert.True(t, s.TotalVariance.IsZero())
	assert.True(t, s.AverageAbsVariancePct.IsZero())
	assert.True(t, s.AccuracyRate.Equal(decimal.NewFromInt(100)))
}

func TestSummarizeTwoShortages(t *testing.T) {
	sessions := []*CashSession{
		closedSession(t, "1000", "980"), // -20, -2%
		closedSession(t, "1000", "800"), // -200, -20%
	}

	s := Summarize(sessions)
	assert.Equal(t, 2, s.TotalSessions)
	assert.Equal(t, 2, s.ClosedCount)
	assert.True(t, s.TotalCollected.Equal(decimal.NewFromInt(1780)))
	assert.True(t, s.TotalExpected.Equal(decimal.NewFromInt(2000)))
	assert.True(t, s.TotalVariance.Equal(decimal.NewFromInt(-220)))
	assert.Equal(t, 2, s.ShortageCount)
	assert.True(t, s.ShortageTotal.Equal(decimal.NewFromInt(220)))
	assert.Equal(t, 0, s.OverageCount)
	assert.True(t, s.OverageTotal.IsZero())
	// Unweighted mean of |{-2, -20}| percent.
	assert.True(t, s.AverageAbsVariancePct.Equal(decimal.NewFromInt(11)), "got %s", s.AverageAbsVariancePct)
	// (1 - 220/2000) * 100
	assert.True(t, s.AccuracyRate.Equal(decimal.NewFromInt(89)), "got %s", s.AccuracyRate)
}

func TestSummarizeMixedStatuses(t *testing.T) {
	approved := closedSession(t, "500", "510")
	approved.Status = StatusApproved
	rejected := closedSession(t, "300", "250")
	rejected.Status = StatusRejected

	sessions := []*CashSession{
		{Status: StatusOpen},
		closedSession(t, "100", "100"),
		approved,
		rejected,
	}

	s := Summarize(sessions)
	assert.Equal(t, 4, s.TotalSessions)
	assert.Equal(t, 1, s.OpenCount)
	assert.Equal(t, 1, s.ClosedCount)
	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 1, s.RejectedCount)
	assert.Equal(t, 1, s.OverageCount)
	assert.True(t, s.OverageTotal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, s.ShortageCount)
	assert.True(t, s.ShortageTotal.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.TotalVariance.Equal(decimal.NewFromInt(-40)))
}

func TestSummarizeOrderIndependent(t *testing.T) {
	a := closedSession(t, "1000", "950")
	b := closedSession(t, "400", "430")
	c := &CashSession{Status: StatusOpen}

	first := Summarize([]*CashSession{a, b, c})
	second := Summarize([]*CashSession{c, b, a})
	assert.Equal(t, first, second)

	// Summarising again over the same input changes nothing.
	assert.Equal(t, first, Summarize([]*CashSession{a, b, c}))
}

func TestTopVariances(t *testing.T) {
	small := closedSession(t, "100", "99")    // -1
	medium := closedSession(t, "100", "110")  // +10
	large := closedSession(t, "1000", "900")  // -100
	balanced := closedSession(t, "100", "100") // 0

	top := TopVariances([]*CashSession{small, balanced, medium, large, {Status: StatusOpen}}, 2)
	require.Len(t, top, 2)
	assert.Same(t, large, top[0])
	assert.Same(t, medium, top[1])

	all := TopVariances([]*CashSession{small, medium, large}, 10)
	assert.Len(t, all, 3)
}

func TestSummarizeDeposits(t *testing.T) {
	amount := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}
	deposits := []*BankDeposit{
		{Status: DepositPending, Amount: amount("100")},
		{Status: DepositPending, Amount: amount("50")},
		{Status: DepositConfirmed, Amount: amount("900")},
		{Status: DepositRejected, Amount: amount("25")},
	}

	s := SummarizeDeposits(deposits)
	assert.Equal(t, 2, s.PendingCount)
	assert.True(t, s.PendingTotal.Equal(amount("150")))
	assert.Equal(t, 1, s.ConfirmedCount)
	assert.True(t, s.ConfirmedTotal.Equal(amount("900")))
	assert.Equal(t, 1, s.RejectedCount)
}
