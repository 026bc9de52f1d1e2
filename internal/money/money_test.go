package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddSubExact(t *testing.T) {
	a := dec("0.1")
	b := dec("0.2")
	assert.True(t, Add(a, b).Equal(dec("0.3")), "got %s", Add(a, b))
	assert.True(t, Sub(dec("1000"), dec("999.99")).Equal(dec("0.01")))
}

func TestSumNoDrift(t *testing.T) {
	// 10,000 additions of one cent must land on exactly 100.00.
	total := decimal.Zero
	cent := dec("0.01")
	for i := 0; i < 10000; i++ {
		total = Add(total, cent)
	}
	assert.True(t, total.Equal(dec("100")), "got %s", total)
}

func TestSumEmpty(t *testing.T) {
	assert.True(t, Sum().IsZero())
}

func TestPercentageOf(t *testing.T) {
	assert.True(t, PercentageOf(dec("-20"), dec("1000")).Equal(dec("-2")))
	assert.True(t, PercentageOf(dec("-200"), dec("1000")).Equal(dec("-20")))
}

func TestPercentageOfZeroTotal(t *testing.T) {
	// A zero denominator reports 0%, even for a nonzero value.
	assert.True(t, PercentageOf(dec("50"), decimal.Zero).IsZero())
}

func TestAccuracyRate(t *testing.T) {
	assert.True(t, AccuracyRate(dec("-220"), dec("2000")).Equal(dec("89")),
		"got %s", AccuracyRate(dec("-220"), dec("2000")))
	assert.True(t, AccuracyRate(decimal.Zero, decimal.Zero).Equal(dec("100")))
	assert.True(t, AccuracyRate(dec("5"), decimal.Zero).Equal(dec("100")))
}
