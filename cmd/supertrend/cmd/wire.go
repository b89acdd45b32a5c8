package cmd

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/broker/oanda"
	"github.com/rustyeddy/supertrend/broker/sim"
	"github.com/rustyeddy/supertrend/config"
	"github.com/rustyeddy/supertrend/feed"
	"github.com/rustyeddy/supertrend/indicators"
	"github.com/rustyeddy/supertrend/journal"
	"github.com/rustyeddy/supertrend/metrics"
	"github.com/rustyeddy/supertrend/risk"
	"github.com/rustyeddy/supertrend/strategies"
	"github.com/rustyeddy/supertrend/trader"
)

// openJournal returns the configured journal; "none" discards.
func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "csv":
		return journal.NewCSV(c.TradesFile, c.EquityFile)
	case "sqlite":
		return journal.NewSQLite(c.DBPath)
	case "postgres":
		return journal.NewPostgres(c.DSN)
	default:
		return journal.Discard{}, nil
	}
}

// buildRunner assembles a runner from cfg. The returned closer releases the
// feed and journal.
func buildRunner(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*trader.Runner, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	meta, err := cfg.InstrumentMeta()
	if err != nil {
		return nil, nil, err
	}
	window, err := cfg.SessionWindow()
	if err != nil {
		return nil, nil, err
	}
	dayLoc, err := cfg.DayLocation()
	if err != nil {
		return nil, nil, err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	closers := multiCloser{j}
	fail := func(err error) (*trader.Runner, io.Closer, error) {
		_ = closers.Close()
		return nil, nil, err
	}

	var client *oanda.Client
	if cfg.Broker.Type == "oanda" || cfg.Feed.Type == "oanda" {
		if err := oanda.LoadEnv(cfg.Broker.EnvFile); err != nil {
			return fail(err)
		}
		token, account, err := oanda.Credentials(cfg.Broker.AccountID)
		if err != nil {
			return fail(err)
		}
		if client, err = oanda.NewClient(cfg.Broker.Environment, token, account); err != nil {
			return fail(err)
		}
	}

	var (
		gw        broker.Gateway
		runnerJnl journal.Journal
	)
	switch cfg.Broker.Type {
	case "oanda":
		g, err := oanda.NewGateway(client, meta)
		if err != nil {
			return fail(err)
		}
		gw, runnerJnl = g, j
	default:
		gw = sim.NewEngine(meta, meta.PipValue, cfg.Broker.Balance, j)
	}

	var f feed.Feed
	switch cfg.Feed.Type {
	case "oanda":
		f = &oanda.CandleFeed{
			Client:      client,
			Instrument:  meta.Name,
			Granularity: cfg.Feed.Granularity,
			Count:       cfg.Feed.Count,
		}
	default:
		from, to, _ := cfg.FeedRange()
		cf, err := feed.NewCSVBars(cfg.Feed.Path, from, to)
		if err != nil {
			return fail(err)
		}
		f = cf
	}

	stCfg := &strategies.SupertrendFlipConfig{
		Instrument:     meta.Name,
		Label:          cfg.Strategy.Label,
		RiskAmount:     cfg.Strategy.RiskAmount,
		TakeProfitPips: cfg.Strategy.TakeProfitPips,
		Limits:         risk.Limits{MaxTradesPerDay: cfg.Risk.MaxTradesPerDay, StopAfterWin: true},
		DayLocation:    dayLoc,
	}
	strategy, err := strategies.StrategyByName(cfg.Strategy.Name, stCfg, window)
	if err != nil {
		_ = f.Close()
		return fail(err)
	}

	r := &trader.Runner{
		Feed:       f,
		Indicator:  indicators.NewSupertrend(cfg.Strategy.Periods, cfg.Strategy.Multiplier),
		Strategy:   strategy,
		Gateway:    gw,
		Instrument: meta,
		PipValue:   meta.PipValue,
		Label:      cfg.Strategy.Label,
		Journal:    runnerJnl,
		Log:        log,
		Metrics:    m,
		Options:    trader.Options{CloseAtEnd: cfg.Feed.Type == "csv"},
	}

	log.Info("trader configured",
		zap.String("instrument", meta.Name),
		zap.Float64("pip_size", meta.PipSize()),
		zap.Float64("pip_value", meta.PipValue),
		zap.Stringer("session", window),
		zap.String("day_zone", dayLoc.String()),
		zap.String("broker", cfg.Broker.Type),
		zap.String("feed", cfg.Feed.Type),
		zap.String("journal", cfg.Journal.Type))

	return r, closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
