package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// round2 rounds a money amount to cents.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// roundUnits rounds a unit count to the nearest integer.
func roundUnits(v float64) float64 {
	return math.Round(v)
}
