// Package indicators provides streaming technical indicators used by the
// data provider to assemble snapshots. They are deterministic and safe to
// reuse across live, simulated, and replayed sessions.
package indicators

import "github.com/commssoldier/win-trader-bot/market"

// Indicator computes a single streaming value from closed candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ADX(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value; callers should check Ready() first.
	Value() float64
}

// trueRange is the Wilder true range for a candle given its predecessor.
func trueRange(cur, prev market.Candle) float64 {
	tr := cur.High - cur.Low
	if hc := abs(cur.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := abs(cur.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
