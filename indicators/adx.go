package indicators

import (
	"fmt"

	"github.com/commssoldier/win-trader-bot/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
//
//	adx := indicators.NewADX(14)
//	adx.Update(candle)
//	if adx.Ready() && adx.Value() >= 25 { ... }
type ADX struct {
	period int

	prev    market.Candle
	hasPrev bool

	trN  float64
	pdmN float64
	mdmN float64

	adx   float64
	dxSum float64
	dxCnt int

	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.period) }

// Warmup: period candles to seed smoothed TR/+DM/-DM, then period DX
// values to seed ADX, plus the initial previous-candle seed.
func (a *ADX) Warmup() int { return 2*a.period + 1 }

func (a *ADX) Ready() bool { return a.ready }

func (a *ADX) Reset() {
	*a = ADX{period: a.period}
}

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Update(c market.Candle) {
	if !a.hasPrev {
		a.prev = c
		a.hasPrev = true
		a.count = 1
		return
	}

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	tr := trueRange(c, a.prev)
	a.prev = c
	a.count++

	p := float64(a.period)

	// Phase A: accumulate initial sums, convert to averages at period+1.
	if a.count <= a.period+1 {
		a.trN += tr
		a.pdmN += pdm
		a.mdmN += mdm
		if a.count < a.period+1 {
			return
		}
		a.trN /= p
		a.pdmN /= p
		a.mdmN /= p
	} else {
		// Wilder smoothing.
		a.trN = a.trN - a.trN/p + tr
		a.pdmN = a.pdmN - a.pdmN/p + pdm
		a.mdmN = a.mdmN - a.mdmN/p + mdm
	}

	if a.trN == 0 {
		return
	}

	pdi := 100 * a.pdmN / a.trN
	mdi := 100 * a.mdmN / a.trN
	sum := pdi + mdi
	if sum == 0 {
		return
	}
	dx := 100 * abs(pdi-mdi) / sum

	// Phase B: average the first period DX values, then smooth.
	if !a.ready {
		a.dxSum += dx
		a.dxCnt++
		if a.dxCnt == a.period {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return
	}
	a.adx = (a.adx*(p-1) + dx) / p
}
