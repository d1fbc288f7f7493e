// Package market defines the instrument constants, snapshot record, and
// B3 calendar rules shared by every other package.
package market

import "math"

// WIN mini-index contract parameters. One point of the index is worth
// R$0.20 per contract; the broker requires roughly R$2000 of capital
// per open contract intraday.
const (
	PointValue        = 0.20
	MarginPerContract = 2000.0

	DefaultSymbol = "WIN$"
)

// PointsToReais converts a signed WIN point result into account currency.
func PointsToReais(points float64) float64 {
	return points * PointValue
}

// ReaisToPoints converts an account-currency value into WIN points.
func ReaisToPoints(reais float64) float64 {
	return reais / PointValue
}

// MaxContracts returns the capital-derived contract ceiling: one contract
// per MarginPerContract of capital, never below one when there is capital
// at all. Callers must handle capital <= 0 before sizing.
func MaxContracts(capital float64) int {
	if capital <= 0 {
		return 0
	}
	n := int(math.Floor(capital / MarginPerContract))
	if n < 1 {
		n = 1
	}
	return n
}
