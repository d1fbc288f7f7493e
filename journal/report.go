package journal

import (
	"fmt"
	"time"
)

// DailyReport is the end-of-day summary exported alongside the trade
// detail rows.
type DailyReport struct {
	Date            time.Time
	ProfileName     string
	Capital         float64
	ResultReais     float64
	ResultPoints    float64
	Trades          []TradeRecord
	TargetHit       bool
	StopHit         bool
	MaxDrawdown     float64
	OfflineCount    int
	OfflineDuration time.Duration
}

// WinRate is the percentage of profitable trades.
func (r *DailyReport) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range r.Trades {
		if t.ResultReais > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(r.Trades)) * 100
}

// Export writes the report: a summary block followed by one row per
// closed trade.
func (r *DailyReport) Export(path string) error {
	w, f, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := [][]string{
		{"Summary"},
		{"Date", r.Date.Format("2006-01-02")},
		{"Profile", r.ProfileName},
		{"Starting capital", fmt.Sprintf("%.2f", r.Capital)},
		{"Result (R$)", fmt.Sprintf("%.2f", r.ResultReais)},
		{"Result (points)", fmt.Sprintf("%.2f", r.ResultPoints)},
		{"Win rate", fmt.Sprintf("%.2f%%", r.WinRate())},
		{"Target hit", fmt.Sprintf("%t", r.TargetHit)},
		{"Stop hit", fmt.Sprintf("%t", r.StopHit)},
		{"Max drawdown (R$)", fmt.Sprintf("%.2f", r.MaxDrawdown)},
		{"Offline periods", fmt.Sprintf("%d", r.OfflineCount)},
		{"Offline time (min)", fmt.Sprintf("%.2f", r.OfflineDuration.Minutes())},
		{""},
		{"Trades"},
		{
			"entry_time", "exit_time", "side", "contracts",
			"entry_price", "exit_price", "stop_points", "take_points",
			"result_points", "result_reais", "regime", "exit_reason",
		},
	}
	for _, t := range r.Trades {
		rows = append(rows, []string{
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			t.Side,
			fmt.Sprintf("%d", t.Contracts),
			fmt.Sprintf("%.1f", t.EntryPrice),
			fmt.Sprintf("%.1f", t.ExitPrice),
			fmt.Sprintf("%.1f", t.StopPoints),
			fmt.Sprintf("%.1f", t.TakePoints),
			fmt.Sprintf("%.1f", t.ResultPoints),
			fmt.Sprintf("%.2f", t.ResultReais),
			t.Regime,
			t.ExitReason,
		})
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
