package regime

import "math"

// Guard flags abnormal ATR expansion so the engine can veto new entries.
// Stateless and deterministic.
type Guard struct {
	// MinSamples is the history length below which the guard abstains
	// (insufficient data means no veto).
	MinSamples int
	// MaxWindow caps how far back the sample window reaches.
	MaxWindow int
	// Sigmas is the population standard-deviation multiple above the
	// sample mean that counts as extreme.
	Sigmas float64
}

// DefaultGuard returns the canonical 20/50/2-sigma configuration.
func DefaultGuard() Guard {
	return Guard{MinSamples: 20, MaxWindow: 50, Sigmas: 2.0}
}

// Extreme reports whether current exceeds mean + Sigmas*stddev of the
// most recent window of history.
func (g Guard) Extreme(history []float64, current float64) bool {
	if len(history) < g.MinSamples {
		return false
	}
	if len(history) > g.MaxWindow {
		history = history[len(history)-g.MaxWindow:]
	}

	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(len(history))

	var sq float64
	for _, v := range history {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(history)))

	return current > mean+g.Sigmas*std
}
