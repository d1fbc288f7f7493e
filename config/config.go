// Package config loads and validates the bot configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/commssoldier/win-trader-bot/engine"
	"github.com/commssoldier/win-trader-bot/market"
	"github.com/commssoldier/win-trader-bot/regime"
	"github.com/commssoldier/win-trader-bot/risk"
)

// Config is the complete bot configuration.
type Config struct {
	Account AccountConfig     `json:"account" yaml:"account"`
	Risk    RiskConfig        `json:"risk" yaml:"risk"`
	Regime  regime.Thresholds `json:"regime" yaml:"regime"`
	Window  WindowConfig      `json:"window" yaml:"window"`
	Engine  EngineConfig      `json:"engine" yaml:"engine"`
	Journal JournalConfig     `json:"journal" yaml:"journal"`
	Logging LoggingConfig     `json:"logging" yaml:"logging"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Capital float64 `json:"capital" yaml:"capital"`
	Symbol  string  `json:"symbol" yaml:"symbol"`
}

// RiskConfig selects a built-in profile plus optional per-field overrides.
type RiskConfig struct {
	Profile   string         `json:"profile" yaml:"profile"`
	Overrides risk.Overrides `json:"overrides" yaml:"overrides"`
}

// WindowConfig is the intraday session in "HH:MM" clocks.
type WindowConfig struct {
	Start      string `json:"start" yaml:"start"`
	End        string `json:"end" yaml:"end"`
	ForceClose string `json:"force_close" yaml:"force_close"`
}

// EngineConfig contains loop timing and position-management parameters.
// Durations use time.ParseDuration strings, e.g. "5s".
type EngineConfig struct {
	PollInterval  string `json:"poll_interval" yaml:"poll_interval"`
	DegradedDelay string `json:"degraded_delay" yaml:"degraded_delay"`
	StopTimeout   string `json:"stop_timeout" yaml:"stop_timeout"`
	ManageStyle   string `json:"manage_style" yaml:"manage_style"`
	Simulated     bool   `json:"simulated" yaml:"simulated"`
	ReportDir     string `json:"report_dir" yaml:"report_dir"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig contains log output parameters.
type LoggingConfig struct {
	Level   string `json:"level" yaml:"level"`
	Console bool   `json:"console" yaml:"console"`
}

// Default returns the ready-to-run configuration for a simulated session.
func Default() *Config {
	return &Config{
		Account: AccountConfig{Capital: 50000, Symbol: market.DefaultSymbol},
		Risk:    RiskConfig{Profile: risk.DefaultProfileName},
		Regime:  regime.Defaults(),
		Window:  WindowConfig{Start: "10:00", End: "17:00", ForceClose: "17:30"},
		Engine: EngineConfig{
			PollInterval:  "5s",
			DegradedDelay: "15s",
			StopTimeout:   "5s",
			ManageStyle:   "trail_atr",
			Simulated:     true,
			ReportDir:     "reports",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "trades.csv",
			EquityFile: "equity.csv",
			DBPath:     "journal.db",
		},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}

// LoadFromFile reads a config on top of the defaults. YAML is tried
// first, JSON as fallback.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section; it parses the same fields the accessor
// methods parse so a validated config cannot fail later.
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Account.Symbol == "" {
		return fmt.Errorf("account.symbol is required")
	}

	known := false
	for _, n := range risk.ProfileNames() {
		if n == c.Risk.Profile {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown risk profile: %s", c.Risk.Profile)
	}
	if err := c.Profile().Validate(); err != nil {
		return fmt.Errorf("risk overrides: %w", err)
	}

	w, err := c.TradingWindow()
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}

	for name, v := range map[string]string{
		"engine.poll_interval":  c.Engine.PollInterval,
		"engine.degraded_delay": c.Engine.DegradedDelay,
		"engine.stop_timeout":   c.Engine.StopTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if _, err := engine.ParseManageStyle(c.Engine.ManageStyle); err != nil {
		return fmt.Errorf("engine.manage_style: %w", err)
	}

	switch c.Journal.Type {
	case "csv", "sqlite", "none":
	default:
		return fmt.Errorf("journal.type must be csv, sqlite or none")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// Profile resolves the preset with overrides applied.
func (c *Config) Profile() risk.Profile {
	return c.Risk.Overrides.Apply(risk.ProfileByName(c.Risk.Profile))
}

// TradingWindow parses the session clocks.
func (c *Config) TradingWindow() (market.TradingWindow, error) {
	start, err := market.ParseClock(c.Window.Start)
	if err != nil {
		return market.TradingWindow{}, fmt.Errorf("window.start: %w", err)
	}
	end, err := market.ParseClock(c.Window.End)
	if err != nil {
		return market.TradingWindow{}, fmt.Errorf("window.end: %w", err)
	}
	fc, err := market.ParseClock(c.Window.ForceClose)
	if err != nil {
		return market.TradingWindow{}, fmt.Errorf("window.force_close: %w", err)
	}
	return market.TradingWindow{Start: start, End: end, ForceClose: fc}, nil
}

// EngineConfig resolves the engine wiring from a validated config.
func (c *Config) EngineConfig() (engine.Config, error) {
	w, err := c.TradingWindow()
	if err != nil {
		return engine.Config{}, err
	}
	poll, err := time.ParseDuration(c.Engine.PollInterval)
	if err != nil {
		return engine.Config{}, fmt.Errorf("engine.poll_interval: %w", err)
	}
	degraded, err := time.ParseDuration(c.Engine.DegradedDelay)
	if err != nil {
		return engine.Config{}, fmt.Errorf("engine.degraded_delay: %w", err)
	}
	style, err := engine.ParseManageStyle(c.Engine.ManageStyle)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Symbol:        c.Account.Symbol,
		Window:        w,
		PollInterval:  poll,
		DegradedDelay: degraded,
		ManageStyle:   style,
		Simulated:     c.Engine.Simulated,
	}, nil
}

// StopTimeout parses the cooperative-shutdown grace period.
func (c *Config) StopTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.StopTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
