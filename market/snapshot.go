package market

import (
	"fmt"
	"math"
	"time"
)

// Snapshot is the per-cycle indicator bundle built by the data provider.
// All fields are required; a provider that cannot fill every field must
// return no snapshot at all rather than a partial one. The engine treats
// the value as read-only once built.
type Snapshot struct {
	// Decision timeframe (15m) candle and indicators.
	Time  time.Time // close time of the last closed decision candle
	Open  float64
	High  float64
	Low   float64
	Close float64
	EMA20 float64
	EMA50 float64
	// EMA20 three decision bars back, for slope normalization.
	EMA20Prev3 float64
	ATR        float64
	ATRPrev    float64
	// Rolling mean of the last ~20 decision-frame ATR values.
	ATRMean float64
	// Short ATR history (oldest first) feeding the volatility guard.
	ATRHistory []float64
	ADX        float64
	Volume     float64
	VolumeAvg  float64
	// Extremes of the previous 5 decision candles, excluding the current.
	BreakoutHigh float64
	BreakoutLow  float64

	// Fast timeframe (5m) candle.
	FastTime      time.Time
	FastOpen      float64
	FastHigh      float64
	FastLow       float64
	FastClose     float64
	FastPrevOpen  float64
	FastPrevClose float64

	// Macro timeframe (60m) indicators.
	MacroEMA20      float64
	MacroEMA50      float64
	MacroEMA20Prev3 float64
	MacroATR        float64
	MacroADX        float64

	// Raw macro high/low series (oldest first) for fractal-pivot structure
	// detection. May be empty when the provider does not supply them; the
	// classifier then skips the structure filter.
	MacroHighs []float64
	MacroLows  []float64

	// Precomputed entry-condition facts.
	PullbackToEMA bool // decision candle touched EMA20 or EMA50
	Rejection     bool // fast candle shows a rejection wick
	MacroAligned  bool // macro and decision EMAs point the same way
}

// Validate enforces the all-fields-required construction contract.
// NaN or non-positive prices indicate an upstream indicator fault, which
// must surface as "no snapshot" before the classifier ever runs.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot: nil")
	}
	if s.Time.IsZero() || s.FastTime.IsZero() {
		return fmt.Errorf("snapshot: missing candle times")
	}
	prices := map[string]float64{
		"open": s.Open, "high": s.High, "low": s.Low, "close": s.Close,
		"ema20": s.EMA20, "ema50": s.EMA50, "ema20_prev3": s.EMA20Prev3,
		"fast_open": s.FastOpen, "fast_high": s.FastHigh,
		"fast_low": s.FastLow, "fast_close": s.FastClose,
		"macro_ema20": s.MacroEMA20, "macro_ema50": s.MacroEMA50,
		"breakout_high": s.BreakoutHigh, "breakout_low": s.BreakoutLow,
	}
	for name, v := range prices {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("snapshot: invalid %s %v", name, v)
		}
	}
	// ATR and ADX may legitimately be zero on dead markets, never negative.
	for name, v := range map[string]float64{
		"atr": s.ATR, "adx": s.ADX, "macro_atr": s.MacroATR,
		"macro_adx": s.MacroADX, "atr_mean": s.ATRMean,
		"volume": s.Volume, "volume_avg": s.VolumeAvg,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("snapshot: invalid %s %v", name, v)
		}
	}
	return nil
}

// EMADistanceATR is the EMA20/EMA50 gap on the decision frame normalized
// by ATR. Zero when ATR is not positive, by definition.
func (s *Snapshot) EMADistanceATR() float64 {
	if s.ATR <= 0 {
		return 0
	}
	return math.Abs(s.EMA20-s.EMA50) / s.ATR
}
