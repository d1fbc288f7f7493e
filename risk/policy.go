package risk

import "github.com/commssoldier/win-trader-bot/regime"

// RegimePolicy maps a regime class to its risk allowance and permitted
// entry styles. Loaded once, immutable.
type RegimePolicy struct {
	RiskPercent   float64
	AllowPullback bool
	AllowBreakout bool
}

var regimePolicies = map[regime.Class]RegimePolicy{
	regime.StrongTrend: {RiskPercent: 0.0075, AllowPullback: true, AllowBreakout: true},
	regime.WeakTrend:   {RiskPercent: 0.0050, AllowPullback: true, AllowBreakout: false},
	regime.Transition:  {RiskPercent: 0.0035, AllowPullback: true, AllowBreakout: false},
}

// PolicyFor returns the policy for a regime class. Range, paused, and
// anything unknown map to the zero policy: no entries.
func PolicyFor(c regime.Class) RegimePolicy {
	if p, ok := regimePolicies[c]; ok {
		return p
	}
	return RegimePolicy{}
}
