// Package engine is the orchestrator: it polls the provider for closed
// candles, runs the regime/risk gating chain, and owns the single
// position and the daily risk account for one trading session.
package engine

import "github.com/commssoldier/win-trader-bot/regime"

// Status is the externally visible engine state. BlockedReason is empty
// while entries are allowed.
type Status struct {
	Running       bool
	BlockedReason string
	Regime        string
}

// StatusFunc receives state changes. The engine calls it from its loop
// goroutine; callers marshal into their own context if they need to.
type StatusFunc func(Status)

// RegimeFunc receives the classification of each decision cycle.
type RegimeFunc func(regime.Signal)
