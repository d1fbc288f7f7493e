package engine

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commssoldier/win-trader-bot/broker"
	"github.com/commssoldier/win-trader-bot/journal"
	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
	"github.com/commssoldier/win-trader-bot/risk"
)

// stubProvider is a scripted Provider for driving cycles directly.
type stubProvider struct {
	mu        sync.Mutex
	connected bool
	snap      *market.Snapshot
	decision  time.Time
	fast      time.Time
	orders    []broker.OrderRequest
}

func (p *stubProvider) setConnected(up bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = up
}

func (p *stubProvider) bumpFast(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fast = p.fast.Add(d)
}

func (p *stubProvider) EnsureConnection(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *stubProvider) LastClosedCandleTime(ctx context.Context, tf market.Timeframe) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tf == market.M15 {
		return p.decision, !p.decision.IsZero()
	}
	return p.fast, !p.fast.IsZero()
}

func (p *stubProvider) BuildSnapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return nil, broker.ErrNoSnapshot
	}
	s := *p.snap
	return &s, nil
}

func (p *stubProvider) SubmitOrder(ctx context.Context, symbol string, req broker.OrderRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, req)
	return nil
}

// trendingSnapshot is a clean strong-trend buy setup: pullback present,
// breakout present, no volatility anomaly.
func trendingSnapshot(now time.Time) *market.Snapshot {
	hist := make([]float64, 20)
	for i := range hist {
		hist[i] = 200
	}
	return &market.Snapshot{
		Time: now, Open: 140300, High: 140600, Low: 140200, Close: 140500,
		EMA20: 140400, EMA50: 140000, EMA20Prev3: 140300,
		ATR: 200, ATRPrev: 200, ATRMean: 200, ATRHistory: hist,
		ADX: 30, Volume: 1000, VolumeAvg: 900,
		BreakoutHigh: 140400, BreakoutLow: 140100,

		FastTime: now, FastOpen: 140450, FastHigh: 140550,
		FastLow: 140400, FastClose: 140500,
		FastPrevOpen: 140400, FastPrevClose: 140450,

		MacroEMA20: 141000, MacroEMA50: 140000, MacroEMA20Prev3: 140700,
		MacroATR: 300, MacroADX: 30,

		PullbackToEMA: true, MacroAligned: true,
	}
}

func sessionTime() time.Time {
	return time.Date(2026, time.August, 25, 11, 0, 0, 0, market.B3)
}

func newTestEngine(p broker.Provider, clock func() time.Time) *Engine {
	acct := risk.NewAccount(50000, risk.ProfileByName("Moderado"))
	cls := regime.NewClassifier(regime.Defaults())
	cfg := Config{
		PollInterval:  time.Millisecond,
		DegradedDelay: time.Millisecond,
		Simulated:     true,
		Clock:         clock,
	}
	return New(cfg, p, cls, acct, journal.Nop{}, zerolog.Nop())
}

func TestDecisionCycleOpensAndStopCloses(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	var signals []regime.Signal
	e.onRegime = func(s regime.Signal) { signals = append(signals, s) }

	e.decisionCycle(context.Background(), now)
	require.NotNil(t, e.position)
	assert.Equal(t, broker.Buy, e.position.Side)
	// 50000 * 0.0075 risk over a 360-point stop at R$0.20/pt.
	assert.Equal(t, 5, e.position.Contracts)
	assert.InDelta(t, 140500, e.position.EntryPrice, 1e-9)
	assert.InDelta(t, 140140, e.position.StopPrice, 1e-9)
	assert.InDelta(t, 141220, e.position.TakePrice, 1e-9)

	require.Len(t, signals, 1)
	assert.Equal(t, regime.StrongTrend, signals[0].Final)
	assert.Greater(t, signals[0].Confidence, 0.5)

	// Next fast candle trades through the stop.
	down := trendingSnapshot(now)
	down.FastHigh = 140300
	down.FastLow = 140100
	down.FastClose = 140150
	p.snap = down

	e.fastCycle(context.Background(), now)
	assert.Nil(t, e.position)
	require.Len(t, e.trades, 1)
	assert.Equal(t, ExitStop, e.trades[0].ExitReason)
	assert.InDelta(t, -1800, e.account.ResultPoints, 1e-9) // -360 pts x 5 contracts
	assert.Equal(t, 1, e.account.TradeCount)
}

func TestVolatilityGuardPausesEntries(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	snap := trendingSnapshot(now)
	for i := range snap.ATRHistory {
		if i%2 == 0 {
			snap.ATRHistory[i] = 190
		} else {
			snap.ATRHistory[i] = 210
		}
	}
	snap.ATR = 500 // mean 200, sigma 10: far beyond 2 sigma
	p := &stubProvider{connected: true, snap: snap, decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	var last regime.Signal
	e.onRegime = func(s regime.Signal) { last = s }

	e.decisionCycle(context.Background(), now)
	assert.Nil(t, e.position)
	assert.Equal(t, regime.Paused, last.Final)
	assert.Equal(t, "volatility guard", e.State().BlockedReason)
}

func TestDailyTargetBlockThenExpansion(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	// 3000 points = R$600 = the Moderado daily target on 50k.
	e.account.RegisterResult(3000)

	e.decisionCycle(context.Background(), now)
	assert.Nil(t, e.position)
	assert.Equal(t, risk.ReasonDailyTarget, e.State().BlockedReason)

	require.True(t, e.ApplyExpansion())
	assert.Empty(t, e.State().BlockedReason)

	e.decisionCycle(context.Background(), now)
	assert.NotNil(t, e.position)
}

func TestApplyExpansionWhileLoopRuns(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	// Day target already reached before the loop starts.
	e.account.RegisterResult(3000)
	require.NoError(t, e.Start(context.Background(), 0, nil, nil))

	// Keep fast candles closing so the loop keeps evaluating the gate
	// chain while the expansion lands from this goroutine.
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for i := 0; i < 100; i++ {
			p.bumpFast(time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}()

	require.Eventually(t, func() bool {
		return e.State().BlockedReason == risk.ReasonDailyTarget
	}, time.Second, time.Millisecond)

	require.True(t, e.ApplyExpansion())

	require.Eventually(t, func() bool {
		return e.State().BlockedReason == ""
	}, time.Second, time.Millisecond)

	<-fed
	require.True(t, e.Stop(time.Second))
	assert.NotNil(t, e.position, "bonus trade opened after the expansion")
}

func TestExpirationDayBlocksEntries(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, time.August, 19, 11, 0, 0, 0, market.B3)
	p := &stubProvider{connected: true, snap: trendingSnapshot(expiry), decision: expiry, fast: expiry}
	e := newTestEngine(p, func() time.Time { return expiry })

	e.decisionCycle(context.Background(), expiry)
	assert.Nil(t, e.position)
	assert.Equal(t, "expiration day", e.State().BlockedReason)
}

func TestMissingSnapshotSkipsCycle(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	e.decisionCycle(context.Background(), now)
	assert.Nil(t, e.position)
	assert.Empty(t, e.trades)
}

func TestSinglePositionInvariant(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	up := trendingSnapshot(now)
	down := trendingSnapshot(now)
	down.FastHigh = 140300
	down.FastLow = 139900
	down.FastClose = 140000

	p := &stubProvider{connected: true, snap: up, decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	rng := rand.New(rand.NewSource(42))
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		if rng.Intn(2) == 0 {
			p.snap = up
		} else {
			p.snap = down
		}
		if rng.Intn(2) == 0 {
			e.decisionCycle(context.Background(), now)
		} else {
			e.fastCycle(context.Background(), now)
		}

		if e.position != nil {
			seen[e.position.ID] = true
		}
		active := 0
		if e.position != nil {
			active = 1
		}
		require.Equal(t, len(seen)-len(e.trades), active,
			"iteration %d: more than one live position", i)
	}
}

func TestRealModeSubmitsOrder(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })
	e.cfg.Simulated = false

	e.decisionCycle(context.Background(), now)
	require.NotNil(t, e.position)
	require.Len(t, p.orders, 1)
	assert.Equal(t, broker.Buy, p.orders[0].Side)
	assert.Equal(t, 5, p.orders[0].Contracts)
	assert.InDelta(t, 360, p.orders[0].StopPoints, 1e-9)
}

func TestMaxContractsCapApplies(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })
	e.maxContracts = 2

	e.decisionCycle(context.Background(), now)
	require.NotNil(t, e.position)
	assert.Equal(t, 2, e.position.Contracts)
}

func TestStartFailsWithoutConnection(t *testing.T) {
	t.Parallel()

	p := &stubProvider{connected: false}
	e := newTestEngine(p, sessionTime)

	err := e.Start(context.Background(), 0, nil, nil)
	assert.Error(t, err)
}

func TestRunLoopStartStop(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	require.NoError(t, e.Start(context.Background(), 0, nil, nil))
	assert.True(t, e.State().Running)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, e.Stop(time.Second))
	assert.False(t, e.State().Running)
}

func TestRunLoopReportsDegraded(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	require.NoError(t, e.Start(context.Background(), 0, nil, nil))
	p.setConnected(false)

	require.Eventually(t, func() bool {
		return e.State().BlockedReason == "provider offline"
	}, time.Second, 5*time.Millisecond)

	assert.True(t, e.Stop(time.Second))
}

func TestCloseDayForceClosesAndExports(t *testing.T) {
	t.Parallel()

	now := sessionTime()
	p := &stubProvider{connected: true, snap: trendingSnapshot(now), decision: now, fast: now}
	e := newTestEngine(p, func() time.Time { return now })

	e.decisionCycle(context.Background(), now)
	require.NotNil(t, e.position)

	dir := t.TempDir()
	require.NoError(t, e.CloseDay(dir))
	assert.Nil(t, e.position)
	require.Len(t, e.trades, 1)
	assert.Equal(t, ExitForceClose, e.trades[0].ExitReason)

	report, err := os.ReadFile(filepath.Join(dir, "2026-08-25_report.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "force_close")

	_, err = os.Stat(filepath.Join(dir, "2026-08-25_equity.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "monthly_stats.csv"))
	assert.NoError(t, err)
}

func TestLoopWithSimProvider(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.August, 24, 10, 0, 0, 0, market.B3)
	sim := broker.NewSim(1, start, 140000)
	sim.Prime(broker.WarmupBars)

	now := sessionTime()
	e := newTestEngine(sim, func() time.Time { return now })

	require.NoError(t, e.Start(context.Background(), 1, nil, nil))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, e.Stop(time.Second))
}
