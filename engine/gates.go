package engine

import (
	"math"

	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
	"github.com/commssoldier/win-trader-bot/risk"
)

// transitionADXMin is the extra trend-strength floor demanded before a
// transition-regime entry is taken.
const transitionADXMin = 22.0

// entryAllowed is the regime-specific entry-condition check, the last
// gate before sizing. Range and paused regimes never enter.
func entryAllowed(sig regime.Signal, pol risk.RegimePolicy, s *market.Snapshot) bool {
	if sig.Direction == regime.Neutral {
		return false
	}

	breakout := false
	if sig.Direction == regime.Buy {
		breakout = s.Close > s.BreakoutHigh
	} else {
		breakout = s.Close < s.BreakoutLow
	}

	switch sig.Final {
	case regime.StrongTrend:
		return (pol.AllowPullback && s.PullbackToEMA) ||
			(pol.AllowBreakout && breakout)
	case regime.WeakTrend:
		return pol.AllowPullback && s.PullbackToEMA
	case regime.Transition:
		return pol.AllowPullback &&
			s.PullbackToEMA &&
			s.Rejection &&
			s.ADX > transitionADXMin &&
			s.MacroAligned &&
			math.Abs(s.EMA20-s.EMA50) > 0.5*s.ATR
	}
	return false
}
