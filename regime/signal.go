// Package regime fuses macro and decision-timeframe indicators into a
// single market-regime signal, and flags abnormal volatility expansion.
package regime

// Class is the combined regime classification the engine trades on.
type Class int

const (
	Range Class = iota
	Transition
	WeakTrend
	StrongTrend
	// Paused is set by the engine when the volatility guard vetoes the
	// cycle; the classifier itself never emits it.
	Paused
)

func (c Class) String() string {
	switch c {
	case StrongTrend:
		return "strong_trend"
	case WeakTrend:
		return "weak_trend"
	case Transition:
		return "transition"
	case Paused:
		return "paused"
	default:
		return "range"
	}
}

// MacroClass is the higher-timeframe context classification.
type MacroClass int

const (
	MacroRange MacroClass = iota
	MacroTransition
	MacroTrend
)

func (m MacroClass) String() string {
	switch m {
	case MacroTrend:
		return "trend"
	case MacroTransition:
		return "transition"
	default:
		return "range"
	}
}

// Direction is the trade side suggested by EMA ordering, independent of
// the regime class.
type Direction int

const (
	Neutral Direction = 0
	Buy     Direction = 1
	Sell    Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "neutral"
	}
}

// Structure is the fractal-pivot price structure on a timeframe.
type Structure int

const (
	StructureNone Structure = iota
	StructureBull           // higher highs and higher lows
	StructureBear           // lower highs and lower lows
)

func (s Structure) String() string {
	switch s {
	case StructureBull:
		return "hh_hl"
	case StructureBear:
		return "lh_ll"
	default:
		return "none"
	}
}

// Signal is the per-cycle classification output. It is recomputed fresh
// every cycle and never mutated.
type Signal struct {
	Macro      MacroClass
	Decision   Class
	Final      Class
	Direction  Direction
	Confidence float64

	MacroStructure Structure
	PivotHighs     int
	PivotLows      int
}
