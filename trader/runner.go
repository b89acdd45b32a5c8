// Package trader runs a bar strategy against a gateway, one bar at a time.
package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/feed"
	"github.com/rustyeddy/supertrend/indicators"
	"github.com/rustyeddy/supertrend/journal"
	"github.com/rustyeddy/supertrend/market"
	"github.com/rustyeddy/supertrend/metrics"
	"github.com/rustyeddy/supertrend/risk"
	"github.com/rustyeddy/supertrend/strategies"
)

// Options controls the end of a run.
type Options struct {
	// CloseAtEnd closes the label's open positions once the feed is
	// exhausted, for file-driven paper runs.
	CloseAtEnd bool
}

// Summary counts what a run did.
type Summary struct {
	Bars     int
	Orders   int
	Closes   int
	Failures int
	Start    time.Time
	End      time.Time
	State    risk.DailyState
}

// Runner wires the feed, indicator, strategy and gateway together. It is
// strictly serial: a bar, including every gateway call it causes, is fully
// handled before the next one is read.
type Runner struct {
	Feed      feed.Feed
	Indicator indicators.TrendIndicator
	Strategy  strategies.BarStrategy
	Gateway   broker.Gateway

	Instrument market.InstrumentMeta
	PipValue   float64
	Label      string

	// Journal records closes made through the runner. Leave it nil for
	// gateways that journal on their own (the paper gateway).
	Journal journal.Journal

	Log     *zap.Logger
	Metrics *metrics.Metrics
	Options Options

	ready   bool
	state   risk.DailyState
	prev    indicators.TrendSignal
	summary Summary
}

func (r *Runner) validate() error {
	switch {
	case r.Feed == nil:
		return errors.New("trader: Feed is required")
	case r.Indicator == nil:
		return errors.New("trader: Indicator is required")
	case r.Strategy == nil:
		return errors.New("trader: Strategy is required")
	case r.Gateway == nil:
		return errors.New("trader: Gateway is required")
	case r.Label == "":
		return errors.New("trader: Label is required")
	}
	if r.Log == nil {
		r.Log = zap.NewNop()
	}
	if r.Metrics == nil {
		r.Metrics = metrics.New(nil, r.Label)
	}
	r.ready = true
	return nil
}

// Run consumes the feed until it is exhausted or ctx is done.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.validate(); err != nil {
		return Summary{}, err
	}
	defer r.Feed.Close()

	r.Log.Info("run started",
		zap.String("strategy", r.Strategy.Name()),
		zap.String("indicator", r.Indicator.Name()),
		zap.String("instrument", r.Instrument.Name),
		zap.String("label", r.Label))

	for {
		b, ok, err := r.Feed.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return r.summary, fmt.Errorf("trader: feed: %w", err)
		}
		if !ok {
			break
		}
		if err := r.HandleBar(ctx, b); err != nil {
			return r.summary, err
		}
	}

	if r.Options.CloseAtEnd {
		r.closeAll(context.WithoutCancel(ctx))
	}

	r.summary.State = r.state
	r.Log.Info("run finished",
		zap.Int("bars", r.summary.Bars),
		zap.Int("orders", r.summary.Orders),
		zap.Int("closes", r.summary.Closes),
		zap.Int("failures", r.summary.Failures))
	return r.summary, nil
}

// HandleBar processes one closed bar. Gateway refusals are logged and end
// the bar; only an invalid bar or a failing price update is returned.
func (r *Runner) HandleBar(ctx context.Context, b market.Bar) error {
	if !r.ready {
		if err := r.validate(); err != nil {
			return err
		}
	}
	if !b.Valid() {
		return fmt.Errorf("trader: invalid bar at %s", b.Time.Format(time.RFC3339))
	}

	if obs, ok := r.Gateway.(broker.BarObserver); ok {
		if err := obs.UpdateBar(b); err != nil {
			return fmt.Errorf("trader: gateway bar update: %w", err)
		}
	}

	r.Indicator.Update(b)
	sig := r.Indicator.Signal()
	prev := r.prev
	r.prev = sig

	r.Metrics.Bars.Inc()
	r.summary.Bars++
	if r.summary.Start.IsZero() {
		r.summary.Start = b.Time
	}
	r.summary.End = b.Time

	log := r.Log.With(zap.Time("bar", b.Time), zap.Float64("close", b.Close))

	positions, err := r.Gateway.Positions(ctx, r.Label)
	if err != nil {
		r.summary.Failures++
		log.Error("positions unavailable, bar skipped", zap.Error(err))
		return nil
	}

	plan := r.Strategy.Plan(r.state, strategies.BarInput{
		Time:      b.Time,
		Close:     b.Close,
		Signal:    sig,
		Prev:      prev,
		PipSize:   r.Instrument.PipSize(),
		PipValue:  r.PipValue,
		Positions: positions,
	})
	r.state = plan.State

	for _, n := range plan.Notes {
		r.Metrics.EntriesBlocked.Inc()
		log.Debug(n, zap.Stringer("up", sig.Up), zap.Stringer("down", sig.Down))
	}

	// The plan judged the close on the marked P/L; the realized figure
	// decides whether its reversal still goes out.
	realizedWin := false
	for _, c := range plan.Commands {
		if c.Kind == strategies.OpenCommand && c.Reversal && realizedWin {
			r.Metrics.EntriesBlocked.Inc()
			log.Info("reversal dropped, close realized a win", zap.Stringer("command", c))
			break
		}
		pl, err := r.execute(ctx, log, c, plan.Day)
		if err != nil {
			r.summary.Failures++
			log.Error("command failed, rest of bar abandoned",
				zap.Stringer("command", c), zap.Error(err))
			break
		}
		if c.Kind == strategies.CloseCommand && pl > 0 {
			realizedWin = true
		}
	}

	r.Metrics.Daily(r.state.TradesToday, r.state.HasWonToday)
	if eq, ok := r.Gateway.(interface{ Equity() float64 }); ok {
		r.Metrics.Equity.Set(eq.Equity())
	}
	return nil
}

// execute runs one command and applies its effect to the daily state. For a
// close it returns the realized P/L.
func (r *Runner) execute(ctx context.Context, log *zap.Logger, c strategies.Command, day time.Time) (float64, error) {
	var pl float64
	switch c.Kind {
	case strategies.CloseCommand:
		rep, err := r.close(ctx, c.Position.ID, c.Reason)
		if err != nil {
			r.Metrics.CloseFailures.Inc()
			return 0, err
		}
		pl = rep.NetProfit
		if rep.PositionID == "" {
			pl = c.Position.NetProfit
		}
		r.state = c.Apply(r.state, day, pl)
		r.Metrics.Close(pl)
		r.summary.Closes++
		r.record(log, c.Position, rep, pl, c.Reason)
		log.Info("position closed",
			zap.String("id", c.Position.ID),
			zap.Stringer("side", c.Position.Side),
			zap.Float64("price", rep.Price),
			zap.Float64("net_profit", pl),
			zap.String("reason", c.Reason))

	case strategies.OpenCommand:
		side := c.Order.Side.String()
		fill, err := r.Gateway.SubmitMarketOrder(ctx, c.Order)
		if err != nil {
			r.Metrics.OrdersFailed.WithLabelValues(side).Inc()
			return 0, err
		}
		r.state = c.Apply(r.state, day, 0)
		r.Metrics.OrdersSubmitted.WithLabelValues(side).Inc()
		r.summary.Orders++
		log.Info("order filled",
			zap.String("id", fill.PositionID),
			zap.String("side", side),
			zap.Float64("units", fill.Units),
			zap.Float64("price", fill.Price),
			zap.Float64("stop_pips", c.Order.StopLossPips),
			zap.Float64("planned_risk", risk.PlannedRisk(fill.Units, c.Order.StopLossPips, r.PipValue)),
			zap.String("reason", c.Reason),
			zap.Int("trades_today", r.state.TradesToday))

	default:
		return 0, fmt.Errorf("trader: unknown command %v", c.Kind)
	}
	return pl, nil
}

// closeAll closes what the label still holds. Outcomes are journaled by the
// gateway but do not touch the daily state.
func (r *Runner) closeAll(ctx context.Context) {
	positions, err := r.Gateway.Positions(ctx, r.Label)
	if err != nil {
		r.Log.Error("close at end: positions unavailable", zap.Error(err))
		return
	}
	for _, p := range positions {
		rep, err := r.close(ctx, p.ID, "EndOfRun")
		if err != nil {
			r.Log.Error("close at end failed", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		r.summary.Closes++
		r.record(r.Log, p, rep, rep.NetProfit, "EndOfRun")
		r.Log.Info("closed at end", zap.String("id", p.ID), zap.Float64("net_profit", rep.NetProfit))
	}
}

// reasonCloser is a gateway that journals its own closes with a reason.
type reasonCloser interface {
	CloseTrade(ctx context.Context, id, reason string) (broker.CloseReport, error)
}

func (r *Runner) close(ctx context.Context, id, reason string) (broker.CloseReport, error) {
	if rc, ok := r.Gateway.(reasonCloser); ok {
		return rc.CloseTrade(ctx, id, reason)
	}
	return r.Gateway.ClosePosition(ctx, id)
}

func (r *Runner) record(log *zap.Logger, p broker.Position, rep broker.CloseReport, pl float64, reason string) {
	if r.Journal == nil {
		return
	}
	err := r.Journal.RecordTrade(journal.TradeRecord{
		TradeID:    p.ID,
		Instrument: p.Instrument,
		Label:      p.Label,
		Side:       p.Side,
		Units:      p.Units,
		EntryPrice: p.EntryPrice,
		ExitPrice:  rep.Price,
		StopPips:   p.StopLossPips,
		OpenTime:   p.OpenTime,
		CloseTime:  rep.Time,
		RealizedPL: pl,
		Reason:     reason,
	})
	if err != nil {
		log.Warn("journal write failed", zap.String("id", p.ID), zap.Error(err))
	}
}

// State returns the current daily state.
func (r *Runner) State() risk.DailyState { return r.state }
