package risk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
)

func b3Time(h, m int) time.Time {
	return time.Date(2026, time.August, 25, h, m, 0, 0, market.B3)
}

func moderado() Profile { return ProfileByName("Moderado") }

func TestRegisterResultCounters(t *testing.T) {
	t.Parallel()

	a := NewAccount(50000, moderado())

	a.RegisterResult(100)
	assert.InDelta(t, 100, a.ResultPoints, 1e-9)
	assert.Equal(t, 1, a.TradeCount)
	assert.Zero(t, a.ConsecutiveLosses)

	a.RegisterResult(-40)
	a.RegisterResult(-60)
	assert.Equal(t, 2, a.ConsecutiveLosses)
	assert.InDelta(t, 0, a.ResultPoints, 1e-9)

	// Break-even counts as non-losing and resets the streak.
	a.RegisterResult(0)
	assert.Zero(t, a.ConsecutiveLosses)
}

func TestShouldBlockDailyTarget(t *testing.T) {
	t.Parallel()

	a := NewAccount(50000, moderado())
	// Target: 50000 * 1.2% = 600 reais = 3000 points.
	a.RegisterResult(market.ReaisToPoints(600))

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonDailyTarget, reason)

	// Scenario B: after expansion the same state is unblocked.
	assert.True(t, a.ApplyExpansion(b3Time(11, 0)))
	blocked, reason = a.ShouldBlock()
	assert.False(t, blocked)
	assert.Empty(t, reason)
}

func TestShouldBlockDailyStop(t *testing.T) {
	t.Parallel()

	a := NewAccount(50000, moderado())
	// Stop: 50000 * 1% = 500 reais.
	a.RegisterResult(market.ReaisToPoints(-500))

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonDailyStop, reason)
}

func TestShouldBlockPriorityTargetOverStop(t *testing.T) {
	t.Parallel()

	// Pathological profile where the same cumulative result satisfies
	// both the target and the stop check: target must win while the
	// expansion is unapplied, stop must win after it.
	p := moderado()
	p.DailyTargetPct = -0.01 // target at -500: any loss "reaches" it
	a := NewAccount(50000, p)
	a.RegisterResult(market.ReaisToPoints(-500))

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonDailyTarget, reason)

	assert.True(t, a.ApplyExpansion(b3Time(10, 0)))
	blocked, reason = a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonDailyStop, reason)
}

func TestShouldBlockConsecutiveLosses(t *testing.T) {
	t.Parallel()

	a := NewAccount(1_000_000, moderado()) // limits far away
	for i := 0; i < moderado().ConsecutiveLossLimit; i++ {
		a.RegisterResult(-1)
	}

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonConsecutiveLosses, reason)
}

func TestShouldBlockMaxTrades(t *testing.T) {
	t.Parallel()

	a := NewAccount(1_000_000, moderado())
	// Alternate small win/loss so no other breaker trips first.
	for i := 0; i < moderado().MaxTradesPerDay; i++ {
		if i%2 == 0 {
			a.RegisterResult(1)
		} else {
			a.RegisterResult(-1)
		}
	}

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonMaxTrades, reason)
}

func TestApplyExpansionGuards(t *testing.T) {
	t.Parallel()

	a := NewAccount(50000, moderado())

	assert.False(t, a.ApplyExpansion(b3Time(13, 0)), "at cutoff")
	assert.False(t, a.ApplyExpansion(b3Time(14, 30)), "past cutoff")

	assert.True(t, a.ApplyExpansion(b3Time(12, 59)))
	assert.True(t, a.ExpansionApplied())
	assert.Equal(t, ExpansionBonusTrades, a.ExpansionTradesLeft())

	// Idempotent: a second application is refused.
	assert.False(t, a.ApplyExpansion(b3Time(12, 59)))
}

func TestApplyExpansionConcurrentWithBreaker(t *testing.T) {
	t.Parallel()

	a := NewAccount(50000, moderado())
	a.RegisterResult(market.ReaisToPoints(600))

	// The breaker polls from the engine loop while the expansion lands
	// from an operator goroutine.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			a.ShouldBlock()
		}
	}()
	assert.True(t, a.ApplyExpansion(b3Time(11, 0)))
	wg.Wait()

	blocked, _ := a.ShouldBlock()
	assert.False(t, blocked)
}

func TestExpansionRaisesTradeCeiling(t *testing.T) {
	t.Parallel()

	a := NewAccount(1_000_000, moderado())
	for i := 0; i < moderado().MaxTradesPerDay; i++ {
		a.RegisterResult(1)
	}
	blocked, _ := a.ShouldBlock()
	assert.True(t, blocked)

	assert.True(t, a.ApplyExpansion(b3Time(11, 0)))
	blocked, _ = a.ShouldBlock()
	assert.False(t, blocked, "bonus trades available")

	// A winning bonus trade consumes budget but keeps the ceiling.
	a.RegisterResult(5)
	assert.Equal(t, 1, a.ExpansionTradesLeft())
	blocked, _ = a.ShouldBlock()
	assert.False(t, blocked)
}

func TestExpansionForfeitedOnLoss(t *testing.T) {
	t.Parallel()

	a := NewAccount(1_000_000, moderado())
	for i := 0; i < moderado().MaxTradesPerDay; i++ {
		a.RegisterResult(1)
	}
	assert.True(t, a.ApplyExpansion(b3Time(11, 0)))

	// One losing bonus trade ends the expansion outright.
	a.RegisterResult(-1)
	assert.Zero(t, a.ExpansionTradesLeft())

	blocked, reason := a.ShouldBlock()
	assert.True(t, blocked)
	assert.Equal(t, ReasonMaxTrades, reason)
}

func TestPolicyLookup(t *testing.T) {
	t.Parallel()

	strong := PolicyFor(regime.StrongTrend)
	assert.InDelta(t, 0.0075, strong.RiskPercent, 1e-9)
	assert.True(t, strong.AllowPullback)
	assert.True(t, strong.AllowBreakout)

	weak := PolicyFor(regime.WeakTrend)
	assert.True(t, weak.AllowPullback)
	assert.False(t, weak.AllowBreakout)

	rng := PolicyFor(regime.Range)
	assert.Zero(t, rng.RiskPercent)
	assert.False(t, rng.AllowPullback)
	assert.False(t, rng.AllowBreakout)
}

func TestProfileOverrides(t *testing.T) {
	t.Parallel()

	target := 0.03
	trades := 2
	o := Overrides{DailyTargetPct: &target, MaxTradesPerDay: &trades}
	p := o.Apply(moderado())

	assert.InDelta(t, 0.03, p.DailyTargetPct, 1e-9)
	assert.Equal(t, 2, p.MaxTradesPerDay)
	assert.InDelta(t, 0.01, p.DailyStopPct, 1e-9) // untouched

	assert.NoError(t, p.Validate())
	p.MaxTradesPerDay = 0
	assert.Error(t, p.Validate())
}

func TestProfileByNameFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Moderado", ProfileByName("does-not-exist").Name)
	assert.Equal(t, "Agressivo", ProfileByName("Agressivo").Name)
	assert.Contains(t, ProfileNames(), "Conservador")
}
