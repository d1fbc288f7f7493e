// Package journal persists closed trades, the equity curve, and the
// end-of-day report.
package journal

import "time"

// TradeRecord is one closed trade with everything the daily report needs.
type TradeRecord struct {
	TradeID      string
	Symbol       string
	Side         string
	Contracts    int
	EntryTime    time.Time
	ExitTime     time.Time
	EntryPrice   float64
	ExitPrice    float64
	StopPoints   float64
	TakePoints   float64
	ResultPoints float64
	ResultReais  float64
	Regime       string
	ExitReason   string
}

// EquityPoint is one sample of the intraday equity curve.
type EquityPoint struct {
	Time            time.Time
	EquityReais     float64
	ExpectancyReais float64
}

// Journal records trades and equity samples. Implementations must be
// safe to call from the engine loop.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	Close() error
}

// Nop discards everything; useful in tests and dry runs.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error  { return nil }
func (Nop) RecordEquity(EquityPoint) error { return nil }
func (Nop) Close() error                   { return nil }
