package market

import (
	"fmt"
	"time"
)

// B3 is the exchange timezone. São Paulo dropped DST in 2019, so the
// fixed-offset fallback is exact for current dates.
var B3 = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// NowB3 returns the current wall clock in the exchange timezone.
func NowB3() time.Time {
	return time.Now().In(B3)
}

// ThirdWednesday returns the third Wednesday of the month containing d.
func ThirdWednesday(d time.Time) time.Time {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	for first.Weekday() != time.Wednesday {
		first = first.AddDate(0, 0, 1)
	}
	return first.AddDate(0, 0, 14)
}

// IsExpirationDay reports whether d is a WIN series expiration day
// (the third Wednesday of the month). No new positions are opened on
// expiration days.
func IsExpirationDay(d time.Time) bool {
	tw := ThirdWednesday(d)
	return d.Year() == tw.Year() && d.Month() == tw.Month() && d.Day() == tw.Day()
}

// Clock is a time of day in the exchange timezone.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("parse clock %q: out of range", s)
	}
	return c, nil
}

// TradingWindow bounds the intraday session. Entries are allowed between
// Start and End inclusive; any open position is flattened at ForceClose.
type TradingWindow struct {
	Start      Clock
	End        Clock
	ForceClose Clock
}

// DefaultWindow is the standard WIN day session.
func DefaultWindow() TradingWindow {
	return TradingWindow{
		Start:      Clock{10, 0},
		End:        Clock{17, 0},
		ForceClose: Clock{17, 30},
	}
}

func minutesOf(t time.Time) int {
	lt := t.In(B3)
	return lt.Hour()*60 + lt.Minute()
}

// Contains reports whether t falls inside the entry window.
func (w TradingWindow) Contains(t time.Time) bool {
	m := minutesOf(t)
	return m >= w.Start.minutes() && m <= w.End.minutes()
}

// PastForceClose reports whether t is at or past the flatten deadline.
func (w TradingWindow) PastForceClose(t time.Time) bool {
	return minutesOf(t) >= w.ForceClose.minutes()
}

// Validate checks window ordering.
func (w TradingWindow) Validate() error {
	if w.Start.minutes() >= w.End.minutes() {
		return fmt.Errorf("trading window: start %s not before end %s", w.Start, w.End)
	}
	if w.End.minutes() > w.ForceClose.minutes() {
		return fmt.Errorf("trading window: end %s after force close %s", w.End, w.ForceClose)
	}
	return nil
}
