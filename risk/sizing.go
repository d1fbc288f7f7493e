package risk

import (
	"math"

	"github.com/commssoldier/win-trader-bot/market"
)

// PositionSize is the sizing result for one entry attempt.
type PositionSize struct {
	Contracts  int
	RiskAmount float64 // account currency at risk if the stop is hit
}

// Size converts capital, risk percent, and stop distance into a contract
// count. It fails safe to zero contracts on any non-positive input and
// never exceeds the capital-derived contract ceiling.
func Size(capital, riskPercent, stopPoints float64) PositionSize {
	if capital <= 0 || riskPercent <= 0 || stopPoints <= 0 {
		return PositionSize{}
	}

	riskAmount := capital * riskPercent
	riskPerContract := stopPoints * market.PointValue
	if riskPerContract <= 0 {
		return PositionSize{RiskAmount: riskAmount}
	}

	contracts := int(math.Floor(riskAmount / riskPerContract))
	if contracts < 0 {
		contracts = 0
	}
	if ceiling := market.MaxContracts(capital); contracts > ceiling {
		contracts = ceiling
	}
	return PositionSize{Contracts: contracts, RiskAmount: riskAmount}
}

// TradeLevels are the point distances for one entry attempt, derived
// from the current ATR. Consumed immediately, never persisted.
type TradeLevels struct {
	StopPoints   float64
	TakePoints   float64
	TrailTrigger float64
	TrailStep    float64
}

// Levels derives stop/take/trailing distances from ATR using the profile
// multipliers. The trailing ratchet arms once the favorable excursion
// reaches the original stop distance and steps by one ATR.
func Levels(atr float64, p Profile) TradeLevels {
	stop := p.ATRMultiplier * atr
	return TradeLevels{
		StopPoints:   stop,
		TakePoints:   p.RewardMultiplier * stop,
		TrailTrigger: stop,
		TrailStep:    atr,
	}
}
