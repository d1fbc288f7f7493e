package regime

// Thresholds carries every tunable constant of the classifier. The
// source strategy moved these numbers across iterations, so they are
// policy, not law; Defaults() is the canonical set.
type Thresholds struct {
	// ADX bands shared by both timeframes.
	ADXTrend float64 `yaml:"adx_trend"` // above: trending
	ADXRange float64 `yaml:"adx_range"` // below: ranging
	ADXQuiet float64 `yaml:"adx_quiet"` // below + quiet ATR: dead range

	// Macro step.
	MacroDistRel      float64 `yaml:"macro_dist_rel"`       // trend requires dist_rel above
	MacroDistRelRange float64 `yaml:"macro_dist_rel_range"` // range when dist_rel below
	MacroSlopeRel     float64 `yaml:"macro_slope_rel"`      // trend requires |slope_rel| above

	// Decision step.
	DecisionDistRel  float64 `yaml:"decision_dist_rel"`
	DecisionSlopeRel float64 `yaml:"decision_slope_rel"`
	WeakDistRel      float64 `yaml:"weak_dist_rel"`

	// ATR is "expanding" above this multiple of its rolling mean.
	ATRExpansion float64 `yaml:"atr_expansion"`

	// Confidence discount inside the ambiguous ADX band (ADXRange, ADXTrend].
	AmbiguityDiscount float64 `yaml:"ambiguity_discount"`

	// Structure-aware macro filter.
	StructureFilter   bool    `yaml:"structure_filter"`
	StructureADX      float64 `yaml:"structure_adx"` // lowered trend ADX when structure holds
	StructureLookback int     `yaml:"structure_lookback"`
	PivotSpan         int     `yaml:"pivot_span"`
}

// Defaults returns the canonical threshold set.
func Defaults() Thresholds {
	return Thresholds{
		ADXTrend:          25,
		ADXRange:          20,
		ADXQuiet:          18,
		MacroDistRel:      0.15,
		MacroDistRelRange: 0.10,
		MacroSlopeRel:     0.20,
		DecisionDistRel:   0.20,
		DecisionSlopeRel:  0.15,
		WeakDistRel:       0.12,
		ATRExpansion:      1.10,
		AmbiguityDiscount: 0.9,
		StructureFilter:   true,
		StructureADX:      20,
		StructureLookback: 8,
		PivotSpan:         2,
	}
}
