package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/commssoldier/win-trader-bot/broker"
	"github.com/commssoldier/win-trader-bot/internal/id"
	"github.com/commssoldier/win-trader-bot/journal"
	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
	"github.com/commssoldier/win-trader-bot/risk"
)

// Config is the orchestrator wiring. Zero fields fall back to the
// defaults set in New.
type Config struct {
	Symbol        string
	Window        market.TradingWindow
	Guard         regime.Guard
	PollInterval  time.Duration
	DegradedDelay time.Duration
	ManageStyle   ManageStyle
	// Simulated keeps order execution in-engine; otherwise entries go
	// through Provider.SubmitOrder with server-side stop/take.
	Simulated bool
	// Clock supplies the current time. Defaults to the exchange clock;
	// tests and the sim runner inject their own.
	Clock func() time.Time
}

// Engine runs the decision loop for one instrument and one trading day.
// Position and candle bookkeeping are touched only by the loop
// goroutine; the mutex covers the Status snapshot read by State() and
// the callbacks, and the account carries its own lock so ApplyExpansion
// can arrive from outside the loop.
type Engine struct {
	cfg        Config
	provider   broker.Provider
	classifier *regime.Classifier
	account    *risk.Account
	journal    journal.Journal
	equity     *journal.EquityTracker
	status     *broker.StatusTracker
	log        zerolog.Logger

	maxContracts int
	onStatus     StatusFunc
	onRegime     RegimeFunc

	mu    sync.Mutex
	state Status

	position     *Position
	lastDecision time.Time
	lastFast     time.Time
	lastPrice    float64

	trades      []journal.TradeRecord
	peakReais   float64
	maxDrawdown float64
	targetHit   bool
	stopHit     bool

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config, p broker.Provider, cls *regime.Classifier, acct *risk.Account, j journal.Journal, log zerolog.Logger) *Engine {
	if cfg.Symbol == "" {
		cfg.Symbol = market.DefaultSymbol
	}
	if cfg.Window == (market.TradingWindow{}) {
		cfg.Window = market.DefaultWindow()
	}
	if cfg.Guard == (regime.Guard{}) {
		cfg.Guard = regime.DefaultGuard()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.DegradedDelay <= 0 {
		cfg.DegradedDelay = 15 * time.Second
	}
	if cls.Debug == nil {
		cls.Debug = func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}
	}
	return &Engine{
		cfg:        cfg,
		provider:   p,
		classifier: cls,
		account:    acct,
		journal:    j,
		equity:     journal.NewEquityTracker(),
		status:     broker.NewStatusTracker(),
		log:        log,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (e *Engine) now() time.Time {
	if e.cfg.Clock != nil {
		return e.cfg.Clock()
	}
	return market.NowB3()
}

// Start verifies connectivity, processes one immediate decision event,
// and launches the polling loop. Failing the initial connection is the
// only terminal startup condition.
func (e *Engine) Start(ctx context.Context, maxContracts int, onStatus StatusFunc, onRegime RegimeFunc) error {
	e.maxContracts = maxContracts
	e.onStatus = onStatus
	e.onRegime = onRegime

	if !e.provider.EnsureConnection(ctx) {
		return fmt.Errorf("engine: provider unreachable at startup")
	}
	e.status.Observe(true, e.now())
	e.setRunning(true)

	// First decision event runs before the periodic loop so a restart
	// mid-session reacts to the current candle immediately.
	if t, ok := e.provider.LastClosedCandleTime(ctx, market.M15); ok {
		e.lastDecision = t
		e.safeCycle(func() { e.decisionCycle(ctx, e.now()) })
	}

	go e.run(ctx)
	return nil
}

// Stop requests cooperative shutdown and waits up to timeout for the
// loop to exit. Returns false when the grace period expired; the engine
// is treated as stopped either way.
func (e *Engine) Stop(timeout time.Duration) bool {
	e.stopOnce.Do(func() { close(e.stopCh) })
	select {
	case <-e.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// State returns the current status snapshot.
func (e *Engine) State() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Account exposes the daily risk account for summaries. The loop owns
// mutation; read after Stop for consistent values.
func (e *Engine) Account() *risk.Account { return e.account }

// ApplyExpansion forwards the one-time daily-target expansion to the
// account and clears a target block if it was the active reason. Safe
// to call while the loop is running.
func (e *Engine) ApplyExpansion() bool {
	if !e.account.ApplyExpansion(e.now()) {
		return false
	}
	if e.State().BlockedReason == risk.ReasonDailyTarget {
		e.setBlocked("")
	}
	e.log.Info().Msg("daily target expansion applied")
	return true
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	defer e.setRunning(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		default:
		}

		delay := e.safeIterate(ctx)

		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-time.After(delay):
		}
	}
}

// safeIterate isolates one loop iteration: a panicking cycle is logged
// and the loop continues after the degraded delay.
func (e *Engine) safeIterate(ctx context.Context) (delay time.Duration) {
	delay = e.cfg.PollInterval
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("cycle fault isolated")
			delay = e.cfg.DegradedDelay
		}
	}()
	return e.iterate(ctx)
}

func (e *Engine) safeCycle(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("cycle fault isolated")
		}
	}()
	fn()
}

func (e *Engine) iterate(ctx context.Context) time.Duration {
	now := e.now()

	connected := e.provider.EnsureConnection(ctx)
	e.status.Observe(connected, now)
	if !connected {
		e.setBlocked("provider offline")
		return e.cfg.DegradedDelay
	}

	if e.cfg.Window.PastForceClose(now) {
		e.forceClose(now)
		e.setBlocked("outside trading window")
		return e.cfg.PollInterval
	}

	if t, ok := e.provider.LastClosedCandleTime(ctx, market.M15); ok && t.After(e.lastDecision) {
		e.lastDecision = t
		e.decisionCycle(ctx, now)
	}
	if t, ok := e.provider.LastClosedCandleTime(ctx, market.M5); ok && t.After(e.lastFast) {
		e.lastFast = t
		e.fastCycle(ctx, now)
	}
	return e.cfg.PollInterval
}

func (e *Engine) snapshot(ctx context.Context) *market.Snapshot {
	s, err := e.provider.BuildSnapshot(ctx, e.cfg.Symbol)
	if err != nil {
		if errors.Is(err, broker.ErrNoSnapshot) {
			e.log.Debug().Msg("no snapshot this cycle")
		} else {
			e.log.Warn().Err(err).Msg("snapshot failed")
		}
		return nil
	}
	if err := s.Validate(); err != nil {
		e.log.Warn().Err(err).Msg("snapshot rejected")
		return nil
	}
	e.lastPrice = s.FastClose
	return s
}

// decisionCycle runs the full gating sequence on a new decision candle.
func (e *Engine) decisionCycle(ctx context.Context, now time.Time) {
	s := e.snapshot(ctx)
	if s == nil {
		return
	}

	sig := e.classifier.Classify(s)
	if e.cfg.Guard.Extreme(s.ATRHistory, s.ATR) {
		sig.Final = regime.Paused
	}
	e.setRegime(sig)

	if e.position != nil {
		// Management belongs to the fast cycle; a decision close always
		// coincides with a fast close, so nothing is missed here.
		return
	}
	e.tryOpen(ctx, s, sig, now)
}

// fastCycle manages the open position on a new fast candle, or re-runs
// the entry gating when flat.
func (e *Engine) fastCycle(ctx context.Context, now time.Time) {
	s := e.snapshot(ctx)
	if s == nil {
		return
	}

	if e.position != nil {
		tick := Tick{Time: s.FastTime, High: s.FastHigh, Low: s.FastLow, Close: s.FastClose, EMA20: s.EMA20}
		if exit, closed := e.position.Manage(tick, e.cfg.ManageStyle); closed {
			e.closePosition(exit)
		}
		return
	}

	sig := e.classifier.Classify(s)
	if e.cfg.Guard.Extreme(s.ATRHistory, s.ATR) {
		sig.Final = regime.Paused
	}
	e.tryOpen(ctx, s, sig, now)
}

// tryOpen walks the gate chain in order: calendar, volatility, risk
// account, regime entry conditions, sizing. "No trade" is the normal
// outcome, not an error.
func (e *Engine) tryOpen(ctx context.Context, s *market.Snapshot, sig regime.Signal, now time.Time) {
	if market.IsExpirationDay(now) {
		e.setBlocked("expiration day")
		return
	}
	if !e.cfg.Window.Contains(now) {
		e.setBlocked("outside trading window")
		return
	}
	if sig.Final == regime.Paused {
		e.setBlocked("volatility guard")
		return
	}
	if blocked, reason := e.account.ShouldBlock(); blocked {
		e.setBlocked(reason)
		return
	}
	e.setBlocked("")

	pol := risk.PolicyFor(sig.Final)
	if pol.RiskPercent <= 0 {
		return
	}
	if s.ADX < e.account.Profile.ADXMin {
		return
	}
	if !entryAllowed(sig, pol, s) {
		return
	}

	levels := risk.Levels(s.ATR, e.account.Profile)
	riskPct := pol.RiskPercent
	if p := e.account.Profile.RiskPerTradePct; p > 0 && p < riskPct {
		riskPct = p
	}
	size := risk.Size(e.account.Capital, riskPct, levels.StopPoints)
	contracts := size.Contracts
	if e.maxContracts > 0 && contracts > e.maxContracts {
		contracts = e.maxContracts
	}
	if contracts <= 0 {
		return
	}

	e.open(ctx, s, sig, levels, contracts, now)
}

func (e *Engine) open(ctx context.Context, s *market.Snapshot, sig regime.Signal, levels risk.TradeLevels, contracts int, now time.Time) {
	side := broker.Buy
	if sig.Direction == regime.Sell {
		side = broker.Sell
	}

	entry := s.FastClose
	stop := entry - levels.StopPoints
	take := entry + levels.TakePoints
	if side == broker.Sell {
		stop = entry + levels.StopPoints
		take = entry - levels.TakePoints
	}

	if !e.cfg.Simulated {
		req := broker.OrderRequest{
			Side:       side,
			Contracts:  contracts,
			StopPoints: levels.StopPoints,
			TakePoints: levels.TakePoints,
			Mode:       broker.Market,
		}
		if err := e.provider.SubmitOrder(ctx, e.cfg.Symbol, req); err != nil {
			e.log.Error().Err(err).Msg("order rejected")
			return
		}
	}

	e.position = &Position{
		ID:           id.New(),
		Side:         side,
		Contracts:    contracts,
		EntryPrice:   entry,
		EntryTime:    now,
		Regime:       sig.Final.String(),
		StopPrice:    stop,
		TakePrice:    take,
		StopPoints:   levels.StopPoints,
		TakePoints:   levels.TakePoints,
		TrailTrigger: levels.TrailTrigger,
		TrailStep:    levels.TrailStep,
	}

	e.log.Info().
		Str("trade_id", e.position.ID).
		Str("side", side.String()).
		Int("contracts", contracts).
		Float64("entry", entry).
		Float64("stop", stop).
		Float64("take", take).
		Str("regime", e.position.Regime).
		Float64("confidence", sig.Confidence).
		Msg("position opened")
}

// closePosition books the result, journals the trade, samples equity,
// and clears the position slot.
func (e *Engine) closePosition(exit Exit) {
	p := e.position
	e.position = nil

	totalPoints := exit.Points * float64(p.Contracts)
	e.account.RegisterResult(totalPoints)
	resultReais := market.PointsToReais(totalPoints)

	rec := journal.TradeRecord{
		TradeID:      p.ID,
		Symbol:       e.cfg.Symbol,
		Side:         p.Side.String(),
		Contracts:    p.Contracts,
		EntryTime:    p.EntryTime,
		ExitTime:     exit.Time,
		EntryPrice:   p.EntryPrice,
		ExitPrice:    exit.Price,
		StopPoints:   p.StopPoints,
		TakePoints:   p.TakePoints,
		ResultPoints: totalPoints,
		ResultReais:  resultReais,
		Regime:       p.Regime,
		ExitReason:   exit.Reason,
	}
	e.trades = append(e.trades, rec)
	if err := e.journal.RecordTrade(rec); err != nil {
		e.log.Error().Err(err).Msg("journal trade failed")
	}

	net := e.account.ResultReais()
	point := e.equity.Add(exit.Time, net, e.account.TradeCount, net)
	if err := e.journal.RecordEquity(point); err != nil {
		e.log.Error().Err(err).Msg("journal equity failed")
	}

	if net > e.peakReais {
		e.peakReais = net
	}
	if dd := e.peakReais - net; dd > e.maxDrawdown {
		e.maxDrawdown = dd
	}

	if blocked, reason := e.account.ShouldBlock(); blocked {
		switch reason {
		case risk.ReasonDailyTarget:
			e.targetHit = true
		case risk.ReasonDailyStop:
			e.stopHit = true
		}
		e.setBlocked(reason)
	}

	e.log.Info().
		Str("trade_id", rec.TradeID).
		Str("reason", exit.Reason).
		Float64("points", totalPoints).
		Float64("reais", resultReais).
		Float64("day_reais", net).
		Msg("position closed")
}

func (e *Engine) forceClose(now time.Time) {
	if e.position == nil {
		return
	}
	price := e.lastPrice
	if price <= 0 {
		price = e.position.EntryPrice
	}
	e.closePosition(e.position.CloseAt(price, now, ExitForceClose))
}

// CloseDay flattens any leftover position and exports the daily report,
// the equity curve, and the monthly stats. Call after Stop.
func (e *Engine) CloseDay(dir string) error {
	now := e.now()
	e.forceClose(now)

	offlineCount, offlineTotal := e.status.Summary(now)
	rep := &journal.DailyReport{
		Date:            now,
		ProfileName:     e.account.Profile.Name,
		Capital:         e.account.Capital,
		ResultReais:     e.account.ResultReais(),
		ResultPoints:    e.account.ResultPoints,
		Trades:          e.trades,
		TargetHit:       e.targetHit,
		StopHit:         e.stopHit,
		MaxDrawdown:     e.maxDrawdown,
		OfflineCount:    offlineCount,
		OfflineDuration: offlineTotal,
	}

	day := now.In(market.B3).Format("2006-01-02")
	if err := rep.Export(filepath.Join(dir, day+"_report.csv")); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	if err := e.equity.ExportCSV(filepath.Join(dir, day+"_equity.csv")); err != nil {
		return fmt.Errorf("export equity: %w", err)
	}
	if err := e.equity.ExportMonthlyStats(filepath.Join(dir, "monthly_stats.csv")); err != nil {
		return fmt.Errorf("export monthly stats: %w", err)
	}
	return nil
}

func (e *Engine) setRunning(running bool) {
	e.mu.Lock()
	e.state.Running = running
	st := e.state
	e.mu.Unlock()
	if e.onStatus != nil {
		e.onStatus(st)
	}
}

func (e *Engine) setBlocked(reason string) {
	e.mu.Lock()
	changed := e.state.BlockedReason != reason
	e.state.BlockedReason = reason
	st := e.state
	e.mu.Unlock()
	if changed && e.onStatus != nil {
		e.onStatus(st)
	}
}

func (e *Engine) setRegime(sig regime.Signal) {
	e.mu.Lock()
	e.state.Regime = sig.Final.String()
	e.mu.Unlock()
	if e.onRegime != nil {
		e.onRegime(sig)
	}
}
