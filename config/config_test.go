package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/supertrend/session"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "SupertrendTEST", cfg.Strategy.Label)
	assert.Equal(t, 1000.0, cfg.Strategy.RiskAmount)
	assert.Equal(t, 100000.0, cfg.Strategy.TakeProfitPips)
	assert.Equal(t, 10, cfg.Strategy.Periods)
	assert.Equal(t, 5.7, cfg.Strategy.Multiplier)
	assert.Equal(t, 2, cfg.Risk.MaxTradesPerDay)

	meta, err := cfg.InstrumentMeta()
	require.NoError(t, err)
	assert.Equal(t, 1.0, meta.PipSize())
	assert.Equal(t, 1.0, meta.PipValue)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"missing label", func(c *Config) { c.Strategy.Label = "" }, "strategy.label is required"},
		{"zero risk", func(c *Config) { c.Strategy.RiskAmount = 0 }, "strategy.risk_amount must be positive"},
		{"zero take profit", func(c *Config) { c.Strategy.TakeProfitPips = 0 }, "strategy.take_profit_pips must be positive"},
		{"zero periods", func(c *Config) { c.Strategy.Periods = 0 }, "strategy.periods must be positive"},
		{"zero multiplier", func(c *Config) { c.Strategy.Multiplier = 0 }, "strategy.multiplier must be positive"},
		{"unknown strategy", func(c *Config) { c.Strategy.Name = "ema-cross" }, "unknown strategy"},
		{"unknown instrument", func(c *Config) { c.Instrument.Name = "XAU_EUR" }, "unknown instrument"},
		{"no pip value", func(c *Config) { c.Instrument.Name = "USD_JPY" }, "instrument.pip_value is required"},
		{"bad zone", func(c *Config) { c.Session.Timezone = "Mars/Olympus" }, "time zone"},
		{"bad clock", func(c *Config) { c.Session.Start = "9h" }, "clock"},
		{"zero cap", func(c *Config) { c.Risk.MaxTradesPerDay = 0 }, "risk.max_trades_per_day must be positive"},
		{"bad day zone", func(c *Config) { c.Risk.DayTimezone = "Nowhere/Else" }, "risk.day_timezone"},
		{"bad broker", func(c *Config) { c.Broker.Type = "ib" }, "broker.type"},
		{"sim without balance", func(c *Config) { c.Broker.Balance = 0 }, "broker.balance must be positive"},
		{"oanda live", func(c *Config) { c.Broker.Type = "oanda"; c.Broker.Environment = "live" }, "live is not allowed"},
		{"csv feed without path", func(c *Config) { c.Feed.Path = "" }, "feed.path required"},
		{"bad feed range", func(c *Config) { c.Feed.From = "monday" }, "feed.from"},
		{"oanda feed without granularity", func(c *Config) { c.Feed.Type = "oanda"; c.Feed.Granularity = "" }, "feed.granularity required"},
		{"bad feed", func(c *Config) { c.Feed.Type = "kafka" }, "feed.type"},
		{"csv journal", func(c *Config) { c.Journal = JournalConfig{Type: "csv", TradesFile: "t.csv"} }, "equity_file required"},
		{"sqlite journal", func(c *Config) { c.Journal.DBPath = "" }, "db_path required"},
		{"postgres journal", func(c *Config) { c.Journal = JournalConfig{Type: "postgres"} }, "dsn required"},
		{"bad journal", func(c *Config) { c.Journal.Type = "mongo" }, "journal.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestInstrumentOverrides(t *testing.T) {
	loc := -2
	cfg := Default()
	cfg.Instrument = InstrumentConfig{Name: "USD_JPY", PipValue: 0.0067}
	require.NoError(t, cfg.Validate())

	cfg.Instrument = InstrumentConfig{Name: "XAU_USD", PipLocation: &loc, PipValue: 0.01}
	meta, err := cfg.InstrumentMeta()
	require.NoError(t, err)
	assert.Equal(t, "XAU_USD", meta.Name)
	assert.InDelta(t, 0.01, meta.PipSize(), 1e-12)
	assert.Equal(t, 0.01, meta.PipValue)
}

func TestSessionWindowZoneError(t *testing.T) {
	cfg := Default()
	cfg.Session.Timezone = "Atlantis/Capital"
	_, err := cfg.SessionWindow()
	assert.ErrorIs(t, err, session.ErrTimeZoneResolution)

	cfg = Default()
	w, err := cfg.SessionWindow()
	require.NoError(t, err)
	assert.True(t, w.Contains(time.Date(2024, 7, 1, 13, 30, 0, 0, time.UTC)))
}

func TestSaveAndLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supertrend.yaml")

	cfg := Default()
	cfg.Strategy.RiskAmount = 250
	cfg.Broker.AccountID = "101-001"
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supertrend.json")

	cfg := Default()
	cfg.Journal = JournalConfig{Type: "csv", TradesFile: "t.csv", EquityFile: "e.csv"}
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Journal, got.Journal)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  risk_amount: 500\ninstrument:\n  name: EUR_USD\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 500.0, cfg.Strategy.RiskAmount)
	assert.Equal(t, "SupertrendTEST", cfg.Strategy.Label)
	assert.Equal(t, "EUR_USD", cfg.Instrument.Name)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  risk_amount: -1\n"), 0o644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
