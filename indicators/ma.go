package indicators

import (
	"fmt"

	"github.com/commssoldier/win-trader-bot/market"
)

// EMA is a streaming exponential moving average of candle closes,
// seeded with the SMA of the first period values.
type EMA struct {
	period int
	k      float64
	value  float64
	sum    float64
	count  int

	// Prev keeps a short ring of past values so callers can read the
	// value N bars back (slope normalization needs EMA20 three bars ago).
	hist []float64
}

func NewEMA(period int) *EMA {
	return &EMA{period: period, k: 2.0 / float64(period+1)}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *EMA) Warmup() int  { return e.period }
func (e *EMA) Ready() bool  { return e.count >= e.period }

func (e *EMA) Reset() {
	e.value, e.sum, e.count = 0, 0, 0
	e.hist = nil
}

func (e *EMA) Update(c market.Candle) {
	e.UpdateValue(c.Close)
}

// UpdateValue feeds a raw value instead of a candle close. The ATR rolling
// mean and volume average reuse EMA/SMA over non-price series this way.
func (e *EMA) UpdateValue(v float64) {
	e.count++
	if e.count <= e.period {
		e.sum += v
		if e.count == e.period {
			e.value = e.sum / float64(e.period)
			e.push(e.value)
		}
		return
	}
	e.value = v*e.k + e.value*(1-e.k)
	e.push(e.value)
}

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}

// ValueAgo returns the EMA value n closed bars back (0 = current).
// Returns the oldest retained value when n exceeds the retained window.
func (e *EMA) ValueAgo(n int) float64 {
	if len(e.hist) == 0 {
		return 0
	}
	idx := len(e.hist) - 1 - n
	if idx < 0 {
		idx = 0
	}
	return e.hist[idx]
}

const emaHistory = 8

func (e *EMA) push(v float64) {
	e.hist = append(e.hist, v)
	if len(e.hist) > emaHistory {
		e.hist = e.hist[len(e.hist)-emaHistory:]
	}
}

// SMA is a simple moving average over a sliding window of raw values.
type SMA struct {
	period int
	window []float64
	sum    float64
}

func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }
func (s *SMA) Warmup() int  { return s.period }
func (s *SMA) Ready() bool  { return len(s.window) >= s.period }

func (s *SMA) Reset() {
	s.window, s.sum = nil, 0
}

func (s *SMA) Update(c market.Candle) { s.UpdateValue(c.Close) }

func (s *SMA) UpdateValue(v float64) {
	s.window = append(s.window, v)
	s.sum += v
	if len(s.window) > s.period {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
}

func (s *SMA) Value() float64 {
	if len(s.window) == 0 {
		return 0
	}
	return s.sum / float64(len(s.window))
}
