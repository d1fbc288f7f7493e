package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wintrader",
	Short: "Intraday decision engine for WIN mini-index futures",
	Long: `Wintrader is an intraday decision engine for the B3 WIN mini-index
future. It classifies the market regime across three timeframes, sizes
positions against a hard daily risk budget, and manages at most one
position at a time with a monotonic trailing stop.

Commands:
  run       - run a simulated session from a config file
  profiles  - list the built-in risk profiles
  report    - rebuild a daily report from a SQLite journal
  version   - print the version`,
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}
