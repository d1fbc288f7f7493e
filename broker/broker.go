// Package broker defines the data/execution provider boundary: the engine
// consumes snapshots and candle times through a Provider and, when not
// simulating, submits orders through the same interface.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/commssoldier/win-trader-bot/market"
)

// ErrNoSnapshot means the provider could not assemble a complete snapshot
// this cycle (insufficient history, invalid data, indicator fault). It is
// a skip signal, not a failure.
var ErrNoSnapshot = errors.New("broker: no snapshot available")

// Side is the order direction.
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// OrderMode selects how the entry order is placed.
type OrderMode int

const (
	Market OrderMode = iota
	Limit
)

func (m OrderMode) String() string {
	if m == Limit {
		return "limit"
	}
	return "market"
}

// OrderRequest is an entry order with server-side stop and take distances
// in points from the fill price.
type OrderRequest struct {
	Side       Side
	Contracts  int
	StopPoints float64
	TakePoints float64
	Mode       OrderMode
}

// Provider is the external market-data and order-transmission interface.
// Implementations own connection management and indicator computation.
type Provider interface {
	// EnsureConnection verifies the session is usable, reconnecting if it
	// can. The engine degrades and retries next cycle on false.
	EnsureConnection(ctx context.Context) bool

	// LastClosedCandleTime returns the open time of the most recent
	// closed candle on the timeframe, or ok=false when unknown.
	LastClosedCandleTime(ctx context.Context, tf market.Timeframe) (time.Time, bool)

	// BuildSnapshot assembles the full indicator snapshot for the symbol.
	// Returns ErrNoSnapshot when history is insufficient or data invalid.
	BuildSnapshot(ctx context.Context, symbol string) (*market.Snapshot, error)

	// SubmitOrder transmits an entry order. Only called in non-simulated
	// mode; stop and take land server-side.
	SubmitOrder(ctx context.Context, symbol string, req OrderRequest) error
}
