package tools

import (
	"time"

	"github.com/shopspring/decimal"
)

// UTCDate truncates a timestamp to its UTC calendar date at midnight. The
// challenge day boundary is defined in these terms everywhere.
func UTCDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RoundMoney rounds to cents through decimal to avoid binary float drift in
// values surfaced to users. Rule-engine threshold checks deliberately skip
// this and compare raw floats.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatMoney renders a monetary amount with exactly two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ProfitPercent returns the relative gain of equity over the starting
// balance, rounded to basis-point precision for ranking display.
func ProfitPercent(initialBalance, equity float64) float64 {
	if initialBalance == 0 {
		return 0
	}
	return decimal.NewFromFloat(equity).
		Sub(decimal.NewFromFloat(initialBalance)).
		Div(decimal.NewFromFloat(initialBalance)).
		Mul(decimal.NewFromInt(100)).
		Round(4).
		InexactFloat64()
}
