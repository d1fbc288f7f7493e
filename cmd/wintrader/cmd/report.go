package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/commssoldier/win-trader-bot/journal"
	"github.com/commssoldier/win-trader-bot/market"
)

var reportCmd = &cobra.Command{
	Use:   "report <YYYY-MM-DD>",
	Short: "Rebuild a daily report from a SQLite journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var reportDBPath string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportDBPath, "db", "d", "journal.db", "path to SQLite journal")
}

func runReport(cmd *cobra.Command, args []string) error {
	day, err := time.ParseInLocation("2006-01-02", args[0], market.B3)
	if err != nil {
		return fmt.Errorf("parse day: %w", err)
	}

	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	trades, err := j.ListTradesClosedBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Printf("No trades closed on %s.\n", args[0])
		return nil
	}

	var totalPoints, totalReais float64
	wins := 0
	fmt.Printf("%-8s %-4s %4s %10s %10s %9s %10s %-12s\n",
		"Exit", "Side", "Qty", "Entry", "Exit", "Points", "R$", "Reason")
	for _, t := range trades {
		fmt.Printf("%-8s %-4s %4d %10.1f %10.1f %9.1f %10.2f %-12s\n",
			t.ExitTime.In(market.B3).Format("15:04:05"),
			t.Side, t.Contracts, t.EntryPrice, t.ExitPrice,
			t.ResultPoints, t.ResultReais, t.ExitReason)
		totalPoints += t.ResultPoints
		totalReais += t.ResultReais
		if t.ResultReais > 0 {
			wins++
		}
	}

	fmt.Printf("\n%d trades, %d wins (%.1f%%), %.1f points, R$ %.2f\n",
		len(trades), wins, float64(wins)/float64(len(trades))*100,
		totalPoints, totalReais)
	return nil
}
