package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// EquityTracker keeps the in-memory equity curve for the session and
// exports it, plus monthly aggregates, at end of day.
type EquityTracker struct {
	history []EquityPoint
}

func NewEquityTracker() *EquityTracker {
	return &EquityTracker{}
}

// Add appends one sample. Expectancy is total profit per trade so far;
// zero while no trade has closed.
func (e *EquityTracker) Add(now time.Time, equityReais float64, totalTrades int, totalProfit float64) EquityPoint {
	expectancy := 0.0
	if totalTrades > 0 {
		expectancy = totalProfit / float64(totalTrades)
	}
	p := EquityPoint{Time: now, EquityReais: equityReais, ExpectancyReais: expectancy}
	e.history = append(e.history, p)
	return p
}

// History returns the samples in insertion order.
func (e *EquityTracker) History() []EquityPoint {
	out := make([]EquityPoint, len(e.history))
	copy(out, e.history)
	return out
}

// ExportCSV writes the full curve.
func (e *EquityTracker) ExportCSV(path string) error {
	w, f, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"timestamp", "equity_reais", "expectancy_reais"}); err != nil {
		return err
	}
	for _, p := range e.history {
		if err := w.Write([]string{
			p.Time.Format(time.RFC3339),
			fmt.Sprintf("%.2f", p.EquityReais),
			fmt.Sprintf("%.2f", p.ExpectancyReais),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ExportMonthlyStats writes first/last equity and the variation per
// calendar month present in the curve.
func (e *EquityTracker) ExportMonthlyStats(path string) error {
	type bucket struct {
		first, last float64
		seen        bool
	}
	buckets := map[string]*bucket{}
	for _, p := range e.history {
		key := p.Time.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if !b.seen {
			b.first = p.EquityReais
			b.seen = true
		}
		b.last = p.EquityReais
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	w, f, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"month", "equity_start", "equity_end", "variation"}); err != nil {
		return err
	}
	for _, m := range months {
		b := buckets[m]
		if err := w.Write([]string{
			m,
			fmt.Sprintf("%.2f", b.first),
			fmt.Sprintf("%.2f", b.last),
			fmt.Sprintf("%.2f", b.last-b.first),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func createCSV(path string) (*csv.Writer, *os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewWriter(f), f, nil
}
