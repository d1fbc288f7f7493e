package main

import (
	"os"

	"github.com/commssoldier/win-trader-bot/cmd/wintrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
