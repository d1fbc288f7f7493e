package indicators

import (
	"fmt"

	"github.com/commssoldier/win-trader-bot/market"
)

// ATR is a streaming Average True Range with Wilder smoothing.
type ATR struct {
	period    int
	atr       float64
	count     int
	warmupSum float64
	prev      market.Candle
	hasPrev   bool

	hist []float64
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Warmup needs period+1 candles because TR requires a previous close.
func (a *ATR) Warmup() int { return a.period + 1 }

func (a *ATR) Ready() bool { return a.count >= a.period }

func (a *ATR) Reset() {
	a.atr, a.warmupSum = 0, 0
	a.count = 0
	a.hasPrev = false
	a.hist = nil
}

func (a *ATR) Update(c market.Candle) {
	if !a.hasPrev {
		a.prev = c
		a.hasPrev = true
		return
	}

	tr := trueRange(c, a.prev)
	a.prev = c

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
			a.hist = append(a.hist, a.atr)
		}
		return
	}

	a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	a.hist = append(a.hist, a.atr)
	if len(a.hist) > atrHistory {
		a.hist = a.hist[len(a.hist)-atrHistory:]
	}
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// History returns up to the last 50 ATR values (oldest first), which is
// what the volatility guard consumes.
func (a *ATR) History() []float64 {
	out := make([]float64, len(a.hist))
	copy(out, a.hist)
	return out
}

// Prev returns the ATR one bar back, or the current value if there is
// no older sample retained.
func (a *ATR) Prev() float64 {
	if len(a.hist) < 2 {
		return a.Value()
	}
	return a.hist[len(a.hist)-2]
}

const atrHistory = 50
