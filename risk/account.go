package risk

import (
	"sync"
	"time"

	"github.com/commssoldier/win-trader-bot/market"
)

// Block reasons reported by ShouldBlock, in priority order.
const (
	ReasonDailyTarget       = "daily target reached"
	ReasonDailyStop         = "daily stop reached"
	ReasonConsecutiveLosses = "consecutive loss limit"
	ReasonMaxTrades         = "max trades reached"
)

// ExpansionBonusTrades is the extra allowance granted by ApplyExpansion.
const ExpansionBonusTrades = 2

// Account is the mutable risk state for one trading day. The engine
// loop owns trade booking; ApplyExpansion may arrive from another
// goroutine (an operator action), so every method that touches the
// breaker or expansion state locks. The exported counters are written
// by the loop only — read them after the engine stopped. A daily
// rollover replaces the Account wholesale.
type Account struct {
	Capital float64
	Profile Profile

	ResultPoints      float64
	ConsecutiveLosses int
	TradeCount        int

	// ExpansionCutoff is the last time of day the one-time target
	// expansion may be applied.
	ExpansionCutoff market.Clock

	mu               sync.Mutex
	expansionApplied bool
	expansionBonus   int // granted bonus trades, shrinks if forfeited
	expansionLeft    int // bonus budget not yet consumed
}

// NewAccount starts a fresh daily account.
func NewAccount(capital float64, p Profile) *Account {
	return &Account{
		Capital:         capital,
		Profile:         p,
		ExpansionCutoff: market.Clock{Hour: 13},
	}
}

// DailyTargetReais is the profit level, in account currency, at which
// the day normally stops.
func (a *Account) DailyTargetReais() float64 {
	return a.Capital * a.Profile.DailyTargetPct
}

// DailyStopReais is the loss level, in account currency, at which the
// day unconditionally stops.
func (a *Account) DailyStopReais() float64 {
	return a.Capital * a.Profile.DailyStopPct
}

// ResultReais is the cumulative day result in account currency.
func (a *Account) ResultReais() float64 {
	return market.PointsToReais(a.ResultPoints)
}

// ExpansionApplied reports whether the one-time expansion has been used.
func (a *Account) ExpansionApplied() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expansionApplied
}

// ExpansionTradesLeft is the unconsumed bonus trade budget.
func (a *Account) ExpansionTradesLeft() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expansionLeft
}

// RegisterResult books one closed trade in signed points.
func (a *Account) RegisterResult(points float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ResultPoints += points
	a.TradeCount++

	if points < 0 {
		a.ConsecutiveLosses++
	} else {
		a.ConsecutiveLosses = 0
	}

	if a.expansionApplied && a.expansionLeft > 0 {
		a.expansionLeft--
		if points < 0 {
			// The expansion cannot be ridden past a further loss: the
			// unconsumed bonus is forfeited on the spot.
			a.expansionBonus -= a.expansionLeft
			a.expansionLeft = 0
		}
	}
}

// ShouldBlock evaluates the daily circuit breaker in fixed priority
// order and returns the first reason that applies.
func (a *Account) ShouldBlock() (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := market.PointsToReais(a.ResultPoints)

	if result >= a.DailyTargetReais() && !a.expansionApplied {
		return true, ReasonDailyTarget
	}
	if result <= -a.DailyStopReais() {
		return true, ReasonDailyStop
	}
	if a.ConsecutiveLosses >= a.Profile.ConsecutiveLossLimit {
		return true, ReasonConsecutiveLosses
	}
	if a.TradeCount >= a.Profile.MaxTradesPerDay+a.expansionBonus {
		return true, ReasonMaxTrades
	}
	return false, ""
}

// ApplyExpansion grants the one-time bonus trade allowance. It is
// guarded: usable once per day and only before the cutoff time.
// Returns whether the expansion took effect.
func (a *Account) ApplyExpansion(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.expansionApplied {
		return false
	}
	local := now.In(market.B3)
	cutoff := a.ExpansionCutoff.Hour*60 + a.ExpansionCutoff.Minute
	if local.Hour()*60+local.Minute() >= cutoff {
		return false
	}
	a.expansionApplied = true
	a.expansionBonus = ExpansionBonusTrades
	a.expansionLeft = ExpansionBonusTrades
	return true
}
