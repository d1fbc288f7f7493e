package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commssoldier/win-trader-bot/risk"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in risk profiles",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-14s %8s %8s %8s %7s %7s %6s\n",
			"Profile", "Target%", "Stop%", "Risk/Tr", "ATRx", "Trades", "ADXmin")
		for _, name := range risk.ProfileNames() {
			p := risk.ProfileByName(name)
			fmt.Printf("%-14s %7.2f%% %7.2f%% %7.2f%% %7.1f %7d %6.0f\n",
				p.Name,
				p.DailyTargetPct*100,
				p.DailyStopPct*100,
				p.RiskPerTradePct*100,
				p.ATRMultiplier,
				p.MaxTradesPerDay,
				p.ADXMin)
		}
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
