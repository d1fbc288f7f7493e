package regime

import (
	"math"

	"github.com/commssoldier/win-trader-bot/market"
)

// DebugFunc receives classifier trace lines. It is an optional capability
// injected by the caller; the classifier stays pure without it.
type DebugFunc func(format string, args ...any)

// Classifier fuses the macro and decision timeframes of a snapshot into
// a Signal. Classify is a pure function of its input.
type Classifier struct {
	T     Thresholds
	Debug DebugFunc
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{T: t}
}

func (c *Classifier) debugf(format string, args ...any) {
	if c.Debug != nil {
		c.Debug(format, args...)
	}
}

// relative returns v normalized by atr, zero when atr is not positive.
func relative(v, atr float64) float64 {
	if atr <= 0 {
		return 0
	}
	return v / atr
}

// Classify derives the regime signal for one snapshot.
func (c *Classifier) Classify(s *market.Snapshot) Signal {
	t := c.T

	// Macro step.
	macroDist := relative(math.Abs(s.MacroEMA20-s.MacroEMA50), s.MacroATR)
	macroSlope := relative(s.MacroEMA20-s.MacroEMA20Prev3, s.MacroATR)

	var sig Signal
	structureOK := true
	adxTrendMin := t.ADXTrend
	if t.StructureFilter && len(s.MacroHighs) > 0 {
		st, nh, nl := DetectStructure(s.MacroHighs, s.MacroLows, t.StructureLookback, t.PivotSpan)
		sig.MacroStructure, sig.PivotHighs, sig.PivotLows = st, nh, nl
		if st != StructureNone {
			adxTrendMin = t.StructureADX
		} else {
			structureOK = false
		}
		c.debugf("macro structure=%s pivots=%d/%d", st, nh, nl)
	}

	switch {
	case structureOK && s.MacroADX > adxTrendMin &&
		macroDist > t.MacroDistRel && math.Abs(macroSlope) > t.MacroSlopeRel:
		sig.Macro = MacroTrend
	case s.MacroADX < t.ADXRange || macroDist < t.MacroDistRelRange:
		sig.Macro = MacroRange
	default:
		sig.Macro = MacroTransition
	}

	// Decision step.
	decDist := relative(math.Abs(s.EMA20-s.EMA50), s.ATR)
	decSlope := relative(s.EMA20-s.EMA20Prev3, s.ATR)
	atrExpanding := s.ATRMean > 0 && s.ATR > t.ATRExpansion*s.ATRMean

	switch {
	case s.ADX > t.ADXTrend && decDist > t.DecisionDistRel &&
		math.Abs(decSlope) > t.DecisionSlopeRel:
		sig.Decision = StrongTrend
	case s.ADX > t.ADXRange && s.ADX <= t.ADXTrend && decDist > t.WeakDistRel:
		sig.Decision = WeakTrend
	case (s.ADX < t.ADXRange && atrExpanding) ||
		(s.ADX < t.ADXQuiet && s.ATR < s.ATRMean):
		sig.Decision = Range
	default:
		sig.Decision = Transition
	}

	// Combination rule, in priority order.
	switch {
	case sig.Decision == Range:
		sig.Final = Range
	case sig.Macro == MacroTransition || sig.Decision == Transition:
		sig.Final = Transition
	case sig.Macro == MacroTrend && sig.Decision == StrongTrend:
		sig.Final = StrongTrend
	case sig.Decision == StrongTrend || sig.Decision == WeakTrend:
		sig.Final = WeakTrend
	default:
		sig.Final = Range
	}

	// The ambiguous ADX band discounts confidence and, without ATR
	// expansion backing it, overrides the combination to transition.
	ambiguous := s.ADX > t.ADXRange && s.ADX <= t.ADXTrend
	if ambiguous && !atrExpanding {
		sig.Final = Transition
	}

	// Direction is EMA ordering on the decision frame, regime-independent.
	switch {
	case s.EMA20 > s.EMA50:
		sig.Direction = Buy
	case s.EMA20 < s.EMA50:
		sig.Direction = Sell
	default:
		sig.Direction = Neutral
	}

	sig.Confidence = c.confidence(sig.Final, s.ADX, s.MacroADX, decDist, macroDist, ambiguous)

	c.debugf("regime macro=%s decision=%s final=%s dir=%s conf=%.3f dist=%.3f/%.3f slope=%.3f/%.3f expanding=%v",
		sig.Macro, sig.Decision, sig.Final, sig.Direction, sig.Confidence,
		decDist, macroDist, decSlope, macroSlope, atrExpanding)

	return sig
}

func (c *Classifier) confidence(final Class, adxDec, adxMacro, distDec, distMacro float64, ambiguous bool) float64 {
	t := c.T

	var conf float64
	if final == Range {
		conf = 0.5 + 0.5*math.Max(0, (t.ADXRange-adxDec)/t.ADXRange)
	} else {
		conf = 0.5*math.Min(adxDec, 40)/40 +
			0.3*math.Min(adxMacro, 40)/40 +
			0.1*math.Min(distDec+distMacro, 2.0)
	}
	if ambiguous {
		conf *= t.AmbiguityDiscount
	}
	conf = math.Max(0, math.Min(1, conf))
	return math.Round(conf*1000) / 1000
}
