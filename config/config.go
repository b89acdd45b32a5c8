package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/supertrend/market"
	"github.com/rustyeddy/supertrend/session"
)

// Config is the complete trader configuration.
type Config struct {
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Instrument InstrumentConfig `json:"instrument" yaml:"instrument"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Broker     BrokerConfig     `json:"broker" yaml:"broker"`
	Feed       FeedConfig       `json:"feed" yaml:"feed"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
}

type StrategyConfig struct {
	Name           string  `json:"name" yaml:"name"`
	Label          string  `json:"label" yaml:"label"`
	RiskAmount     float64 `json:"risk_amount" yaml:"risk_amount"`
	TakeProfitPips float64 `json:"take_profit_pips" yaml:"take_profit_pips"`
	Periods        int     `json:"periods" yaml:"periods"`
	Multiplier     float64 `json:"multiplier" yaml:"multiplier"`
}

// InstrumentConfig names the traded instrument. PipLocation and PipValue
// override the built-in instrument table when set.
type InstrumentConfig struct {
	Name        string  `json:"name" yaml:"name"`
	PipLocation *int    `json:"pip_location,omitempty" yaml:"pip_location,omitempty"`
	PipValue    float64 `json:"pip_value,omitempty" yaml:"pip_value,omitempty"`
}

type SessionConfig struct {
	Timezone string `json:"timezone" yaml:"timezone"`
	Start    string `json:"start" yaml:"start"` // HH:MM
	End      string `json:"end" yaml:"end"`
}

type RiskConfig struct {
	MaxTradesPerDay int    `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	DayTimezone     string `json:"day_timezone" yaml:"day_timezone"`
}

type BrokerConfig struct {
	Type        string  `json:"type" yaml:"type"` // "sim" or "oanda"
	AccountID   string  `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Environment string  `json:"environment,omitempty" yaml:"environment,omitempty"`
	Balance     float64 `json:"balance,omitempty" yaml:"balance,omitempty"`
	EnvFile     string  `json:"env_file,omitempty" yaml:"env_file,omitempty"`
}

type FeedConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv" or "oanda"
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	From        string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339
	To          string `json:"to,omitempty" yaml:"to,omitempty"`
	Granularity string `json:"granularity,omitempty" yaml:"granularity,omitempty"`
	Count       int    `json:"count,omitempty" yaml:"count,omitempty"`
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv", "sqlite" or "postgres"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type MetricsConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9090", empty disables
}

// LoadFromFile loads configuration from a YAML or JSON file. Missing fields
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration without touching the network.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Strategy.Name) {
	case "", "supertrend-flip", "supertrend", "noop", "none":
	default:
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if c.Strategy.Label == "" {
		return fmt.Errorf("strategy.label is required")
	}
	if c.Strategy.RiskAmount <= 0 {
		return fmt.Errorf("strategy.risk_amount must be positive")
	}
	if c.Strategy.TakeProfitPips <= 0 {
		return fmt.Errorf("strategy.take_profit_pips must be positive")
	}
	if c.Strategy.Periods <= 0 {
		return fmt.Errorf("strategy.periods must be positive")
	}
	if c.Strategy.Multiplier <= 0 {
		return fmt.Errorf("strategy.multiplier must be positive")
	}

	meta, err := c.InstrumentMeta()
	if err != nil {
		return err
	}
	if meta.PipValue <= 0 {
		return fmt.Errorf("instrument.pip_value is required for %s", meta.Name)
	}

	if _, err := c.SessionWindow(); err != nil {
		return err
	}
	if c.Risk.MaxTradesPerDay <= 0 {
		return fmt.Errorf("risk.max_trades_per_day must be positive")
	}
	if _, err := c.DayLocation(); err != nil {
		return err
	}

	switch c.Broker.Type {
	case "sim":
		if c.Broker.Balance <= 0 {
			return fmt.Errorf("broker.balance must be positive for the sim broker")
		}
	case "oanda":
		if strings.EqualFold(c.Broker.Environment, "live") {
			return fmt.Errorf("broker.environment live is not allowed")
		}
	default:
		return fmt.Errorf("broker.type must be 'sim' or 'oanda'")
	}

	switch c.Feed.Type {
	case "csv":
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path required for CSV feed")
		}
		if _, _, err := c.FeedRange(); err != nil {
			return err
		}
	case "oanda":
		if c.Feed.Granularity == "" {
			return fmt.Errorf("feed.granularity required for OANDA feed")
		}
	default:
		return fmt.Errorf("feed.type must be 'csv' or 'oanda'")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	return nil
}

// InstrumentMeta resolves the instrument, applying any overrides.
func (c *Config) InstrumentMeta() (market.InstrumentMeta, error) {
	if c.Instrument.Name == "" {
		return market.InstrumentMeta{}, fmt.Errorf("instrument.name is required")
	}
	meta, ok := market.Lookup(c.Instrument.Name)
	if !ok {
		if c.Instrument.PipLocation == nil {
			return meta, fmt.Errorf("unknown instrument %s: set instrument.pip_location and pip_value", c.Instrument.Name)
		}
		meta = market.InstrumentMeta{Name: c.Instrument.Name}
	}
	if c.Instrument.PipLocation != nil {
		meta.PipLocation = *c.Instrument.PipLocation
	}
	if c.Instrument.PipValue > 0 {
		meta.PipValue = c.Instrument.PipValue
	}
	return meta, nil
}

// SessionWindow builds the entry window. An unknown zone returns
// session.ErrTimeZoneResolution.
func (c *Config) SessionWindow() (*session.Window, error) {
	return session.New(c.Session.Timezone, c.Session.Start, c.Session.End)
}

// DayLocation is the clock that decides the calendar day for the daily cap.
func (c *Config) DayLocation() (*time.Location, error) {
	if c.Risk.DayTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Risk.DayTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: risk.day_timezone %q: %v", session.ErrTimeZoneResolution, c.Risk.DayTimezone, err)
	}
	return loc, nil
}

// FeedRange parses the optional CSV feed bounds.
func (c *Config) FeedRange() (from, to time.Time, err error) {
	if c.Feed.From != "" {
		if from, err = time.Parse(time.RFC3339, c.Feed.From); err != nil {
			return from, to, fmt.Errorf("feed.from: %w", err)
		}
	}
	if c.Feed.To != "" {
		if to, err = time.Parse(time.RFC3339, c.Feed.To); err != nil {
			return from, to, fmt.Errorf("feed.to: %w", err)
		}
	}
	return from, to, nil
}

// Default returns the strategy's stock settings on a CSV paper run.
func Default() *Config {
	return &Config{
		Strategy: StrategyConfig{
			Name:           "supertrend-flip",
			Label:          "SupertrendTEST",
			RiskAmount:     1000,
			TakeProfitPips: 100000,
			Periods:        10,
			Multiplier:     5.7,
		},
		Instrument: InstrumentConfig{
			Name: "NAS100_USD",
		},
		Session: SessionConfig{
			Timezone: session.DefaultZone,
			Start:    session.DefaultStart,
			End:      session.DefaultEnd,
		},
		Risk: RiskConfig{
			MaxTradesPerDay: 2,
			DayTimezone:     "UTC",
		},
		Broker: BrokerConfig{
			Type:        "sim",
			Environment: "practice",
			Balance:     100000,
			EnvFile:     ".env",
		},
		Feed: FeedConfig{
			Type:        "csv",
			Path:        "./bars.csv",
			Granularity: "M15",
			Count:       200,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./supertrend.sqlite",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}
