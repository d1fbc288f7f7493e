package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/commssoldier/win-trader-bot/broker"
	"github.com/commssoldier/win-trader-bot/config"
	"github.com/commssoldier/win-trader-bot/engine"
	"github.com/commssoldier/win-trader-bot/internal/logging"
	"github.com/commssoldier/win-trader-bot/journal"
	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
	"github.com/commssoldier/win-trader-bot/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated session from a config file",
	Long: `Run one simulated trading session. The simulated provider generates a
seeded random-walk price series, the engine trades it with the configured
profile, and the daily report is exported at the end.

Example:
  wintrader run -f examples/bot.yaml --seed 7`,
	RunE: runRun,
}

var (
	runConfigPath string
	runSeed       int64
	runSteps      int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "seed for the simulated price walk")
	runCmd.Flags().IntVar(&runSteps, "steps", 96, "fast candles to simulate (5 minutes each)")
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return journal.Nop{}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Console)

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	w, err := cfg.TradingWindow()
	if err != nil {
		return err
	}
	today := market.NowB3()
	sessionStart := time.Date(today.Year(), today.Month(), today.Day(),
		w.Start.Hour, w.Start.Minute, 0, 0, market.B3)

	sim := broker.NewSim(runSeed,
		sessionStart.Add(-broker.WarmupBars*market.M5.Duration()), 140000)
	sim.Prime(broker.WarmupBars)
	provider := broker.NewBreaker(sim, log)

	ec, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	// The sim clock gates the session; the wall-clock poll just needs to
	// keep up with the stepping below.
	ec.PollInterval = 2 * time.Millisecond
	ec.DegradedDelay = 2 * time.Millisecond
	ec.Clock = sim.Now

	acct := risk.NewAccount(cfg.Account.Capital, cfg.Profile())
	e := engine.New(ec, provider, regime.NewClassifier(cfg.Regime), acct, j, log)

	onStatus := func(st engine.Status) {
		if st.BlockedReason != "" {
			log.Info().Str("reason", st.BlockedReason).Msg("entries blocked")
		}
	}
	onRegime := func(sig regime.Signal) {
		log.Debug().
			Str("regime", sig.Final.String()).
			Str("direction", sig.Direction.String()).
			Float64("confidence", sig.Confidence).
			Msg("regime")
	}

	maxContracts := market.MaxContracts(cfg.Account.Capital)
	if err := e.Start(context.Background(), maxContracts, onStatus, onRegime); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	for i := 0; i < runSteps; i++ {
		sim.Step()
		time.Sleep(5 * time.Millisecond)
	}

	if !e.Stop(cfg.StopTimeout()) {
		log.Warn().Msg("engine loop did not confirm stop in time")
	}
	if err := e.CloseDay(cfg.Engine.ReportDir); err != nil {
		return fmt.Errorf("close day: %w", err)
	}

	fmt.Printf("Session finished: profile %s, %d trades, %.1f points, R$ %.2f\n",
		acct.Profile.Name, acct.TradeCount, acct.ResultPoints, acct.ResultReais())
	fmt.Printf("Reports written to %s\n", cfg.Engine.ReportDir)
	return nil
}
