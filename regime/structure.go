package regime

// DetectStructure scans the last lookback bars of the high/low series for
// fractal pivots (a bar whose high exceeds the span bars on each side,
// resp. whose low undercuts them) and reports whether the pivots form a
// consistent higher-high/higher-low or lower-high/lower-low sequence.
// At least two pivot highs and two pivot lows are needed for a verdict.
func DetectStructure(highs, lows []float64, lookback, span int) (Structure, int, int) {
	if span < 1 || lookback < 2*span+1 {
		return StructureNone, 0, 0
	}
	if len(highs) != len(lows) || len(highs) < lookback+span {
		return StructureNone, 0, 0
	}

	// Pivots need span bars of context on each side, so the scan stops
	// span bars short of the series end.
	start := len(highs) - lookback - span
	if start < span {
		start = span
	}
	end := len(highs) - span

	var pivotHighs, pivotLows []float64
	for i := start; i < end; i++ {
		if isPivotHigh(highs, i, span) {
			pivotHighs = append(pivotHighs, highs[i])
		}
		if isPivotLow(lows, i, span) {
			pivotLows = append(pivotLows, lows[i])
		}
	}

	nh, nl := len(pivotHighs), len(pivotLows)
	if nh < 2 || nl < 2 {
		return StructureNone, nh, nl
	}

	if ascending(pivotHighs) && ascending(pivotLows) {
		return StructureBull, nh, nl
	}
	if descending(pivotHighs) && descending(pivotLows) {
		return StructureBear, nh, nl
	}
	return StructureNone, nh, nl
}

func isPivotHigh(highs []float64, i, span int) bool {
	for j := i - span; j <= i+span; j++ {
		if j == i {
			continue
		}
		if highs[j] >= highs[i] {
			return false
		}
	}
	return true
}

func isPivotLow(lows []float64, i, span int) bool {
	for j := i - span; j <= i+span; j++ {
		if j == i {
			continue
		}
		if lows[j] <= lows[i] {
			return false
		}
	}
	return true
}

func ascending(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}

func descending(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] >= v[i-1] {
			return false
		}
	}
	return true
}
