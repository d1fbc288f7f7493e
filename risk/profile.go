// Package risk converts capital and regime policy into position size and
// trade levels, and tracks the daily result against hard limits.
package risk

import (
	"fmt"
	"sort"
)

// Profile is one operating preset: how much the day may win or lose,
// how wide stops are, and how many trades are allowed.
type Profile struct {
	Name                 string  `yaml:"name"`
	DailyTargetPct       float64 `yaml:"daily_target_pct"`
	DailyStopPct         float64 `yaml:"daily_stop_pct"`
	ATRMultiplier        float64 `yaml:"atr_multiplier"`
	MaxTradesPerDay      int     `yaml:"max_trades_per_day"`
	ADXMin               float64 `yaml:"adx_min"`
	RiskPerTradePct      float64 `yaml:"risk_per_trade_pct"`
	RewardMultiplier     float64 `yaml:"reward_multiplier"`
	ConsecutiveLossLimit int     `yaml:"consecutive_loss_limit"`
}

var profiles = map[string]Profile{
	"Conservador":   {"Conservador", 0.008, 0.006, 1.4, 4, 24.0, 0.005, 2.0, 3},
	"Moderado":      {"Moderado", 0.012, 0.01, 1.8, 7, 20.0, 0.01, 2.0, 3},
	"Agressivo":     {"Agressivo", 0.02, 0.015, 2.3, 12, 16.0, 0.018, 2.0, 3},
	"Personalizado": {"Personalizado", 0.012, 0.01, 1.8, 7, 20.0, 0.01, 2.0, 3},
}

// DefaultProfileName is used when no profile is configured.
const DefaultProfileName = "Moderado"

// ProfileByName returns the named preset, falling back to the default
// when the name is unknown.
func ProfileByName(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles[DefaultProfileName]
}

// ProfileNames lists the built-in presets in stable order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Overrides are optional per-field adjustments applied on top of a
// preset, typically from config. Nil fields leave the preset value.
type Overrides struct {
	DailyTargetPct       *float64 `yaml:"daily_target_pct"`
	DailyStopPct         *float64 `yaml:"daily_stop_pct"`
	ATRMultiplier        *float64 `yaml:"atr_multiplier"`
	MaxTradesPerDay      *int     `yaml:"max_trades_per_day"`
	ADXMin               *float64 `yaml:"adx_min"`
	RiskPerTradePct      *float64 `yaml:"risk_per_trade_pct"`
	RewardMultiplier     *float64 `yaml:"reward_multiplier"`
	ConsecutiveLossLimit *int     `yaml:"consecutive_loss_limit"`
}

// Apply returns a copy of p with the non-nil overrides set.
func (o Overrides) Apply(p Profile) Profile {
	if o.DailyTargetPct != nil {
		p.DailyTargetPct = *o.DailyTargetPct
	}
	if o.DailyStopPct != nil {
		p.DailyStopPct = *o.DailyStopPct
	}
	if o.ATRMultiplier != nil {
		p.ATRMultiplier = *o.ATRMultiplier
	}
	if o.MaxTradesPerDay != nil {
		p.MaxTradesPerDay = *o.MaxTradesPerDay
	}
	if o.ADXMin != nil {
		p.ADXMin = *o.ADXMin
	}
	if o.RiskPerTradePct != nil {
		p.RiskPerTradePct = *o.RiskPerTradePct
	}
	if o.RewardMultiplier != nil {
		p.RewardMultiplier = *o.RewardMultiplier
	}
	if o.ConsecutiveLossLimit != nil {
		p.ConsecutiveLossLimit = *o.ConsecutiveLossLimit
	}
	return p
}

// Validate rejects presets that would make sizing or blocking nonsensical.
func (p Profile) Validate() error {
	if p.DailyTargetPct <= 0 || p.DailyStopPct <= 0 {
		return fmt.Errorf("profile %s: daily target/stop must be positive", p.Name)
	}
	if p.ATRMultiplier <= 0 {
		return fmt.Errorf("profile %s: atr_multiplier must be positive", p.Name)
	}
	if p.MaxTradesPerDay < 1 {
		return fmt.Errorf("profile %s: max_trades_per_day must be at least 1", p.Name)
	}
	if p.RewardMultiplier <= 0 {
		return fmt.Errorf("profile %s: reward_multiplier must be positive", p.Name)
	}
	if p.ConsecutiveLossLimit < 1 {
		return fmt.Errorf("profile %s: consecutive_loss_limit must be at least 1", p.Name)
	}
	return nil
}
