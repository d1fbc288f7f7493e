package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversionRoundTrip(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0, 1, -1, 150, -237.5, 0.2, 123456.78} {
		assert.InDelta(t, x, ReaisToPoints(PointsToReais(x)), 1e-9)
		assert.InDelta(t, x, PointsToReais(ReaisToPoints(x)), 1e-9)
	}
}

func TestMaxContracts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		capital float64
		want    int
	}{
		{"zero", 0, 0},
		{"negative", -5000, 0},
		{"below one margin", 1500, 1},
		{"one margin", 2000, 1},
		{"five margins", 10000, 5},
		{"fractional", 10999, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MaxContracts(tt.capital))
		})
	}
}

func TestThirdWednesday(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Time
		want int // day of month
	}{
		{time.Date(2026, time.August, 3, 0, 0, 0, 0, B3), 19},
		{time.Date(2026, time.September, 28, 0, 0, 0, 0, B3), 16},
		{time.Date(2026, time.July, 1, 0, 0, 0, 0, B3), 15},
	}

	for _, tt := range tests {
		got := ThirdWednesday(tt.in)
		assert.Equal(t, tt.want, got.Day(), "month %s", tt.in.Month())
		assert.Equal(t, time.Wednesday, got.Weekday())
	}
}

func TestIsExpirationDay(t *testing.T) {
	t.Parallel()

	assert.True(t, IsExpirationDay(time.Date(2026, time.August, 19, 11, 0, 0, 0, B3)))
	assert.False(t, IsExpirationDay(time.Date(2026, time.August, 20, 11, 0, 0, 0, B3)))
}

func TestTradingWindow(t *testing.T) {
	t.Parallel()

	w := DefaultWindow()
	assert.NoError(t, w.Validate())

	day := time.Date(2026, time.August, 25, 0, 0, 0, 0, B3)
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, B3)
	}

	assert.False(t, w.Contains(at(9, 59)))
	assert.True(t, w.Contains(at(10, 0)))
	assert.True(t, w.Contains(at(13, 30)))
	assert.True(t, w.Contains(at(17, 0)))
	assert.False(t, w.Contains(at(17, 1)))

	assert.False(t, w.PastForceClose(at(17, 29)))
	assert.True(t, w.PastForceClose(at(17, 30)))
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := ParseClock("10:30")
	assert.NoError(t, err)
	assert.Equal(t, Clock{10, 30}, c)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("bogus")
	assert.Error(t, err)
}

func TestSnapshotValidate(t *testing.T) {
	t.Parallel()

	s := validSnapshot()
	assert.NoError(t, s.Validate())

	bad := validSnapshot()
	bad.Close = 0
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.ATR = -1
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.Time = time.Time{}
	assert.Error(t, bad.Validate())

	var nilSnap *Snapshot
	assert.Error(t, nilSnap.Validate())
}

func TestEMADistanceATR(t *testing.T) {
	t.Parallel()

	s := validSnapshot()
	s.EMA20, s.EMA50, s.ATR = 102, 100, 4
	assert.InDelta(t, 0.5, s.EMADistanceATR(), 1e-9)

	s.ATR = 0
	assert.Zero(t, s.EMADistanceATR())
}

func validSnapshot() *Snapshot {
	now := time.Date(2026, time.August, 25, 11, 0, 0, 0, B3)
	return &Snapshot{
		Time: now, Open: 100, High: 101, Low: 99, Close: 100.5,
		EMA20: 100.2, EMA50: 100.0, EMA20Prev3: 100.1,
		ATR: 1.2, ATRPrev: 1.1, ATRMean: 1.0,
		ATRHistory: []float64{1, 1.1, 1.2},
		ADX:        22, Volume: 500, VolumeAvg: 450,
		BreakoutHigh: 101.5, BreakoutLow: 98.5,
		FastTime: now, FastOpen: 100.3, FastHigh: 100.8,
		FastLow: 100.1, FastClose: 100.5,
		FastPrevOpen: 100.2, FastPrevClose: 100.3,
		MacroEMA20: 100.4, MacroEMA50: 100.1, MacroEMA20Prev3: 100.2,
		MacroATR: 2.5, MacroADX: 24,
	}
}
