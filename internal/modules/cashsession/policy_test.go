package cashsession

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sessionWithPct(s string) *CashSession {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &CashSession{Status: StatusClosed, VariancePercentage: &d}
}

func TestRequiresApprovalBoundary(t *testing.T) {
	cases := []struct {
		pct  string
		want bool
	}{
		{"0", false},
		{"2", false},
		{"5", false}, // exactly at tolerance stays in-tolerance
		{"-5", false},
		{"5.0001", true},
		{"-5.0001", true},
		{"20", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RequiresApproval(sessionWithPct(tc.pct)), "pct %s", tc.pct)
	}
}

func TestRequiresApprovalOpenSession(t *testing.T) {
	assert.False(t, RequiresApproval(&CashSession{Status: StatusOpen}))
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		pct  string
		want VarianceBand
	}{
		{"0", BandOK},
		{"2", BandOK},
		{"-2", BandOK},
		{"2.01", BandReview},
		{"-3.5", BandReview},
		{"5", BandReview},
		{"5.01", BandCritical},
		{"-10", BandCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BandFor(sessionWithPct(tc.pct)), "pct %s", tc.pct)
	}
	assert.Equal(t, BandOK, BandFor(&CashSession{Status: StatusOpen}))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusOpen, StatusClosed))
	assert.True(t, CanTransition(StatusClosed, StatusApproved))
	assert.True(t, CanTransition(StatusClosed, StatusRejected))

	assert.False(t, CanTransition(StatusOpen, StatusApproved))
	assert.False(t, CanTransition(StatusClosed, StatusOpen))
	assert.False(t, CanTransition(StatusApproved, StatusRejected))
	assert.False(t, CanTransition(StatusRejected, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusClosed))
	assert.False(t, CanTransition(SessionStatus("bogus"), StatusClosed))
}
