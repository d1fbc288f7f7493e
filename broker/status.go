package broker

import (
	"sync"
	"time"
)

// OfflinePeriod is one contiguous stretch without provider connectivity.
type OfflinePeriod struct {
	From time.Time
	To   time.Time
}

// StatusTracker accumulates connectivity transitions so the daily report
// can state how long the session ran degraded. Safe for concurrent use.
type StatusTracker struct {
	mu           sync.Mutex
	connected    bool
	offlineSince time.Time
	periods      []OfflinePeriod
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{connected: true}
}

// Observe records the connectivity verdict of one engine cycle.
func (s *StatusTracker) Observe(connected bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !connected && s.connected:
		s.offlineSince = now
	case connected && !s.connected && !s.offlineSince.IsZero():
		s.periods = append(s.periods, OfflinePeriod{From: s.offlineSince, To: now})
		s.offlineSince = time.Time{}
	}
	s.connected = connected
}

// Connected reports the last observed state.
func (s *StatusTracker) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Summary returns the count of closed offline periods and their total
// duration. A still-open offline stretch is measured up to now.
func (s *StatusTracker) Summary(now time.Time) (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.periods)
	var total time.Duration
	for _, p := range s.periods {
		total += p.To.Sub(p.From)
	}
	if !s.connected && !s.offlineSince.IsZero() {
		count++
		total += now.Sub(s.offlineSince)
	}
	return count, total
}
