package broker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/commssoldier/win-trader-bot/indicators"
	"github.com/commssoldier/win-trader-bot/market"
)

// Sim is a deterministic in-process provider: it generates a seeded
// random-walk price series on the fast timeframe, aggregates the decision
// and macro frames from it, and computes the full indicator snapshot the
// way a terminal-side provider would. Orders are recorded, not routed.
type Sim struct {
	mu sync.Mutex

	rng       *rand.Rand
	clock     time.Time
	price     float64
	drift     float64
	connected bool

	fast     *frame
	decision *frame
	macro    *frame

	orders []SubmittedOrder
}

// SubmittedOrder is one order the sim accepted.
type SubmittedOrder struct {
	Time    time.Time
	Symbol  string
	Request OrderRequest
}

// frame aggregates fast candles into one timeframe and keeps its
// indicator set current.
type frame struct {
	tf      market.Timeframe
	group   int // fast candles per closed candle
	pending []market.Candle
	closed  []market.Candle

	ema20   *indicators.EMA
	ema50   *indicators.EMA
	atr     *indicators.ATR
	adx     *indicators.ADX
	atrMean *indicators.SMA
	volAvg  *indicators.SMA
}

func newFrame(tf market.Timeframe, group int) *frame {
	return &frame{
		tf:      tf,
		group:   group,
		ema20:   indicators.NewEMA(20),
		ema50:   indicators.NewEMA(50),
		atr:     indicators.NewATR(14),
		adx:     indicators.NewADX(14),
		atrMean: indicators.NewSMA(20),
		volAvg:  indicators.NewSMA(20),
	}
}

const frameHistory = 64

// WarmupBars is how many fast bars Prime must feed before BuildSnapshot
// can succeed. The macro frame closes one candle per 12 fast bars and
// its slow EMA seeds after 50 closes, which dominates every other
// indicator warmup.
const WarmupBars = 12 * 50

func (f *frame) push(c market.Candle) {
	f.pending = append(f.pending, c)
	if len(f.pending) < f.group {
		return
	}

	agg := f.pending[0]
	for _, p := range f.pending[1:] {
		if p.High > agg.High {
			agg.High = p.High
		}
		if p.Low < agg.Low {
			agg.Low = p.Low
		}
		agg.Close = p.Close
		agg.Volume += p.Volume
	}
	f.pending = f.pending[:0]

	f.closed = append(f.closed, agg)
	if len(f.closed) > frameHistory {
		f.closed = f.closed[len(f.closed)-frameHistory:]
	}

	f.ema20.Update(agg)
	f.ema50.Update(agg)
	f.atr.Update(agg)
	f.adx.Update(agg)
	if f.atr.Ready() {
		f.atrMean.UpdateValue(f.atr.Value())
	}
	f.volAvg.UpdateValue(agg.Volume)
}

func (f *frame) ready() bool {
	return len(f.closed) >= 30 && f.ema50.Ready() && f.atr.Ready() && f.adx.Ready()
}

func (f *frame) last() market.Candle { return f.closed[len(f.closed)-1] }

// NewSim starts a simulated session at startPrice with the clock at
// start. Prime it with WarmupBars before first use.
func NewSim(seed int64, start time.Time, startPrice float64) *Sim {
	return &Sim{
		rng:       rand.New(rand.NewSource(seed)),
		clock:     start,
		price:     startPrice,
		connected: true,
		fast:      newFrame(market.M5, 1),
		decision:  newFrame(market.M15, 3),
		macro:     newFrame(market.H1, 12),
	}
}

// SetConnected flips the simulated connectivity state.
func (s *Sim) SetConnected(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = up
}

// SetDrift biases the walk to trend; zero means pure noise.
func (s *Sim) SetDrift(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drift = d
}

// Now returns the simulated clock, used by the engine instead of wall
// time when running against the sim.
func (s *Sim) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Orders returns the orders accepted so far.
func (s *Sim) Orders() []SubmittedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SubmittedOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

// Step closes one fast candle and advances the clock by one fast period.
func (s *Sim) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
}

// Prime advances n fast candles at once, typically to warm indicators up
// before the session under test begins.
func (s *Sim) Prime(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.step()
	}
}

func (s *Sim) step() {
	open := s.price
	move := s.drift + s.rng.NormFloat64()*40 // WIN points per 5m bar
	close := open + move

	high := maxF(open, close) + s.rng.Float64()*25
	low := minF(open, close) - s.rng.Float64()*25

	c := market.Candle{
		Time:   s.clock,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 100 + s.rng.Float64()*400,
	}

	s.fast.push(c)
	s.decision.push(c)
	s.macro.push(c)

	s.price = close
	s.clock = s.clock.Add(market.M5.Duration())
}

func (s *Sim) EnsureConnection(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Sim) LastClosedCandleTime(ctx context.Context, tf market.Timeframe) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.frameFor(tf)
	if f == nil || len(f.closed) == 0 {
		return time.Time{}, false
	}
	return f.last().Time, true
}

func (s *Sim) frameFor(tf market.Timeframe) *frame {
	switch tf {
	case market.M5:
		return s.fast
	case market.M15:
		return s.decision
	case market.H1:
		return s.macro
	}
	return nil
}

func (s *Sim) SubmitOrder(ctx context.Context, symbol string, req OrderRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, SubmittedOrder{Time: s.clock, Symbol: symbol, Request: req})
	return nil
}

// BuildSnapshot assembles the full multi-timeframe snapshot, or
// ErrNoSnapshot while any frame is still warming up.
func (s *Sim) BuildSnapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNoSnapshot
	}
	if !s.fast.ready() || !s.decision.ready() || !s.macro.ready() {
		return nil, ErrNoSnapshot
	}
	if len(s.fast.closed) < 2 || len(s.decision.closed) < 7 {
		return nil, ErrNoSnapshot
	}

	dec := s.decision.last()
	fast := s.fast.last()
	fastPrev := s.fast.closed[len(s.fast.closed)-2]

	// Extremes of the five decision candles before the current one.
	bh, bl := 0.0, 0.0
	n := len(s.decision.closed)
	for i := n - 6; i < n-1; i++ {
		c := s.decision.closed[i]
		if bh == 0 || c.High > bh {
			bh = c.High
		}
		if bl == 0 || c.Low < bl {
			bl = c.Low
		}
	}

	ema20 := s.decision.ema20.Value()
	ema50 := s.decision.ema50.Value()
	pullback := (dec.Low <= ema20 && ema20 <= dec.High) ||
		(dec.Low <= ema50 && ema50 <= dec.High)

	reject := bullRejection(fast) || bearRejection(fast)

	mEma20 := s.macro.ema20.Value()
	mEma50 := s.macro.ema50.Value()
	aligned := (mEma20 > mEma50 && ema20 > ema50) || (mEma20 < mEma50 && ema20 < ema50)

	macroHighs := make([]float64, 0, len(s.macro.closed))
	macroLows := make([]float64, 0, len(s.macro.closed))
	for _, c := range s.macro.closed {
		macroHighs = append(macroHighs, c.High)
		macroLows = append(macroLows, c.Low)
	}

	snap := &market.Snapshot{
		Time:  dec.Time,
		Open:  dec.Open,
		High:  dec.High,
		Low:   dec.Low,
		Close: dec.Close,

		EMA20:      ema20,
		EMA50:      ema50,
		EMA20Prev3: s.decision.ema20.ValueAgo(3),
		ATR:        s.decision.atr.Value(),
		ATRPrev:    s.decision.atr.Prev(),
		ATRMean:    s.decision.atrMean.Value(),
		ATRHistory: s.decision.atr.History(),
		ADX:        s.decision.adx.Value(),
		Volume:     dec.Volume,
		VolumeAvg:  s.decision.volAvg.Value(),

		BreakoutHigh: bh,
		BreakoutLow:  bl,

		FastTime:      fast.Time,
		FastOpen:      fast.Open,
		FastHigh:      fast.High,
		FastLow:       fast.Low,
		FastClose:     fast.Close,
		FastPrevOpen:  fastPrev.Open,
		FastPrevClose: fastPrev.Close,

		MacroEMA20:      mEma20,
		MacroEMA50:      mEma50,
		MacroEMA20Prev3: s.macro.ema20.ValueAgo(3),
		MacroATR:        s.macro.atr.Value(),
		MacroADX:        s.macro.adx.Value(),
		MacroHighs:      macroHighs,
		MacroLows:       macroLows,

		PullbackToEMA: pullback,
		Rejection:     reject,
		MacroAligned:  aligned,
	}

	if err := snap.Validate(); err != nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// bullRejection marks a bull candle whose lower wick spans at least half
// the candle range: sellers pushed down and were rejected.
func bullRejection(c market.Candle) bool {
	span := c.High - c.Low
	if span <= 0 || c.Close <= c.Open {
		return false
	}
	return minF(c.Open, c.Close)-c.Low >= 0.5*span
}

// bearRejection is the mirror: a long upper wick on a bear candle.
func bearRejection(c market.Candle) bool {
	span := c.High - c.Low
	if span <= 0 || c.Close >= c.Open {
		return false
	}
	return c.High-maxF(c.Open, c.Close) >= 0.5*span
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
