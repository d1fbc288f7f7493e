package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commssoldier/win-trader-bot/market"
)

func TestSizeFailsSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		capital, pct, stop float64
	}{
		{"zero capital", 0, 0.01, 100},
		{"negative capital", -10000, 0.01, 100},
		{"zero risk pct", 50000, 0, 100},
		{"negative risk pct", 50000, -0.01, 100},
		{"zero stop", 50000, 0.01, 0},
		{"negative stop", 50000, 0.01, -50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Size(tt.capital, tt.pct, tt.stop)
			assert.Zero(t, got.Contracts)
			if tt.capital <= 0 {
				assert.Zero(t, got.RiskAmount)
			}
		})
	}
}

func TestSizeBasic(t *testing.T) {
	t.Parallel()

	// 50000 * 1% = 500 at risk; 100-point stop costs 20 per contract.
	got := Size(50000, 0.01, 100)
	assert.Equal(t, 25, got.Contracts)
	assert.InDelta(t, 500, got.RiskAmount, 1e-9)
}

func TestSizeRespectsCeiling(t *testing.T) {
	t.Parallel()

	// Tiny stop would allow a huge count, but margin caps it.
	got := Size(10000, 0.01, 1)
	assert.Equal(t, market.MaxContracts(10000), got.Contracts)
	assert.Equal(t, 5, got.Contracts)
}

func TestSizeNeverNegative(t *testing.T) {
	t.Parallel()

	for _, stop := range []float64{0.5, 1, 10, 1000, 1e9} {
		got := Size(3000, 0.005, stop)
		assert.GreaterOrEqual(t, got.Contracts, 0)
		assert.LessOrEqual(t, got.Contracts, market.MaxContracts(3000))
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	p := ProfileByName("Moderado") // ATR multiplier 1.8, reward 2.0
	lv := Levels(100, p)

	assert.InDelta(t, 180, lv.StopPoints, 1e-9)
	assert.InDelta(t, 360, lv.TakePoints, 1e-9)
	assert.InDelta(t, lv.StopPoints, lv.TrailTrigger, 1e-9)
	assert.InDelta(t, 100, lv.TrailStep, 1e-9)
}
