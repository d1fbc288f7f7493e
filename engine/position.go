package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/commssoldier/win-trader-bot/broker"
)

// ManageStyle selects how the protective stop is ratcheted once the
// trailing trigger arms.
type ManageStyle int

const (
	// TrailATR trails the stop one step behind the latest close.
	TrailATR ManageStyle = iota
	// BreakevenEMA lifts the stop to the better of breakeven and the
	// decision EMA20.
	BreakevenEMA
)

func (m ManageStyle) String() string {
	if m == BreakevenEMA {
		return "breakeven_ema"
	}
	return "trail_atr"
}

// ParseManageStyle maps the config spelling to a style.
func ParseManageStyle(s string) (ManageStyle, error) {
	switch s {
	case "", "trail_atr":
		return TrailATR, nil
	case "breakeven_ema":
		return BreakevenEMA, nil
	}
	return TrailATR, fmt.Errorf("unknown manage style %q", s)
}

// Exit reasons emitted on close.
const (
	ExitStop       = "stop"
	ExitTake       = "take"
	ExitTrail      = "trail"
	ExitForceClose = "force_close"
)

// Position is the single open trade. At most one exists per engine; it
// is created by open, mutated only by Manage, and discarded on close.
type Position struct {
	ID         string
	Side       broker.Side
	Contracts  int
	EntryPrice float64
	EntryTime  time.Time
	Regime     string

	StopPrice float64
	TakePrice float64

	// Original distances in points, kept for the journal row.
	StopPoints float64
	TakePoints float64

	TrailTrigger float64
	TrailStep    float64
	TrailArmed   bool
}

// Tick is the fast-candle slice Manage consumes.
type Tick struct {
	Time  time.Time
	High  float64
	Low   float64
	Close float64
	EMA20 float64
}

// Exit is the outcome of a closed position. Points are signed and
// per-contract.
type Exit struct {
	Reason string
	Price  float64
	Points float64
	Time   time.Time
}

// Manage applies one fast candle to the position: stop first, then take,
// then the trailing ratchet. The stop only ever moves in the favorable
// direction. Returns the exit and true when the position closed.
func (p *Position) Manage(t Tick, style ManageStyle) (Exit, bool) {
	if p.Side == broker.Buy {
		if t.Low <= p.StopPrice {
			return p.exitAtStop(t.Time), true
		}
		if t.High >= p.TakePrice {
			return Exit{Reason: ExitTake, Price: p.TakePrice, Points: p.TakePoints, Time: t.Time}, true
		}
		if !p.TrailArmed && t.High-p.EntryPrice >= p.TrailTrigger {
			p.TrailArmed = true
		}
		if p.TrailArmed {
			candidate := t.Close - p.TrailStep
			if style == BreakevenEMA {
				candidate = math.Max(p.EntryPrice, t.EMA20)
			}
			if candidate > p.StopPrice {
				p.StopPrice = candidate
			}
		}
		return Exit{}, false
	}

	// Short side, mirrored.
	if t.High >= p.StopPrice {
		return p.exitAtStop(t.Time), true
	}
	if t.Low <= p.TakePrice {
		return Exit{Reason: ExitTake, Price: p.TakePrice, Points: p.TakePoints, Time: t.Time}, true
	}
	if !p.TrailArmed && p.EntryPrice-t.Low >= p.TrailTrigger {
		p.TrailArmed = true
	}
	if p.TrailArmed {
		candidate := t.Close + p.TrailStep
		if style == BreakevenEMA {
			candidate = math.Min(p.EntryPrice, t.EMA20)
		}
		if candidate < p.StopPrice {
			p.StopPrice = candidate
		}
	}
	return Exit{}, false
}

func (p *Position) exitAtStop(at time.Time) Exit {
	points := p.StopPrice - p.EntryPrice
	if p.Side == broker.Sell {
		points = p.EntryPrice - p.StopPrice
	}
	reason := ExitStop
	if p.TrailArmed {
		reason = ExitTrail
	}
	return Exit{Reason: reason, Price: p.StopPrice, Points: points, Time: at}
}

// CloseAt flattens the position at an arbitrary price, used by the
// force-close deadline and end-of-day cleanup.
func (p *Position) CloseAt(price float64, at time.Time, reason string) Exit {
	points := price - p.EntryPrice
	if p.Side == broker.Sell {
		points = p.EntryPrice - price
	}
	return Exit{Reason: reason, Price: price, Points: points, Time: at}
}
