// Package sim is a paper order gateway. Orders fill at the close of the
// last bar it has seen and positions are marked on every bar.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/id"
	"github.com/rustyeddy/supertrend/journal"
	"github.com/rustyeddy/supertrend/market"
)

var (
	ErrNoPrice            = errors.New("no price")
	ErrTradeAlreadyClosed = errors.New("trade already closed")
)

type Engine struct {
	mu       sync.Mutex
	meta     market.InstrumentMeta
	pipValue float64
	balance  float64

	last      market.Bar
	havePrice bool

	trades  map[string]*Trade
	order   []string
	journal journal.Journal
}

func NewEngine(meta market.InstrumentMeta, pipValue, balance float64, j journal.Journal) *Engine {
	if j == nil {
		j = journal.Discard{}
	}
	return &Engine{
		meta:     meta,
		pipValue: pipValue,
		balance:  balance,
		trades:   make(map[string]*Trade),
		journal:  j,
	}
}

// Balance is the starting balance plus realized P/L.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Equity is the balance plus the open positions marked at the last close.
func (e *Engine) Equity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked()
}

func (e *Engine) equityLocked() float64 {
	eq := e.balance
	for _, t := range e.trades {
		if t.Open {
			eq += t.NetProfit
		}
	}
	return eq
}

// IsTradeOpen reports whether the given trade exists and is currently open.
func (e *Engine) IsTradeOpen(tradeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.trades[tradeID]
	return ok && t.Open
}

// UpdateBar marks open trades at the bar close, closing those whose stop
// loss or take profit lies inside the bar's range.
func (e *Engine) UpdateBar(b market.Bar) error {
	if !b.Valid() {
		return fmt.Errorf("sim: invalid bar %+v", b)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.last = b
	e.havePrice = true
	pip := e.meta.PipSize()

	for _, tid := range e.order {
		t := e.trades[tid]
		if !t.Open {
			continue
		}

		// Stop first: with only OHLC we can't tell which level traded first.
		if px, hit := t.triggerStopLoss(b, pip); hit {
			if err := e.closeTradeLocked(t, px, "StopLoss"); err != nil {
				return err
			}
			continue
		}
		if px, hit := t.triggerTakeProfit(b, pip); hit {
			if err := e.closeTradeLocked(t, px, "TakeProfit"); err != nil {
				return err
			}
			continue
		}
		t.NetProfit = e.profit(t, b.Close)
	}
	return nil
}

func (e *Engine) Positions(ctx context.Context, label string) ([]broker.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var out []broker.Position
	for _, tid := range e.order {
		t := e.trades[tid]
		if t.Open && t.Label == label {
			out = append(out, t.Position)
		}
	}
	return out, nil
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderFill{}, err
	}

	if err := req.Validate(); err != nil {
		return broker.OrderFill{}, err
	}
	if req.Instrument != e.meta.Name {
		return broker.OrderFill{}, fmt.Errorf("%w: instrument %q not traded here", broker.ErrOrderRejected, req.Instrument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.havePrice {
		return broker.OrderFill{}, fmt.Errorf("%w: %w for %q", broker.ErrOrderRejected, ErrNoPrice, req.Instrument)
	}

	tid := id.At(e.last.Time)
	t := &Trade{
		Position: broker.Position{
			ID:             tid,
			Instrument:     req.Instrument,
			Label:          req.Label,
			Side:           req.Side,
			Units:          req.Units,
			EntryPrice:     e.last.Close,
			OpenTime:       e.last.Time,
			StopLossPips:   req.StopLossPips,
			TakeProfitPips: req.TakeProfitPips,
		},
		Open: true,
	}
	e.trades[tid] = t
	e.order = append(e.order, tid)

	return broker.OrderFill{
		PositionID: tid,
		Instrument: req.Instrument,
		Side:       req.Side,
		Units:      req.Units,
		Price:      e.last.Close,
		Time:       e.last.Time,
	}, nil
}

// ClosePosition closes an open trade at the last close.
func (e *Engine) ClosePosition(ctx context.Context, positionID string) (broker.CloseReport, error) {
	return e.CloseTrade(ctx, positionID, "Signal")
}

// CloseTrade is ClosePosition with a journal reason.
func (e *Engine) CloseTrade(ctx context.Context, tradeID, reason string) (broker.CloseReport, error) {
	if err := ctx.Err(); err != nil {
		return broker.CloseReport{}, err
	}

	if reason == "" {
		reason = "ManualClose"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.trades[tradeID]
	if !ok {
		return broker.CloseReport{}, fmt.Errorf("close trade: %w: %q", broker.ErrPositionNotFound, tradeID)
	}
	if !t.Open {
		return broker.CloseReport{}, fmt.Errorf("close trade: %w: %q", ErrTradeAlreadyClosed, tradeID)
	}
	if !e.havePrice {
		return broker.CloseReport{}, fmt.Errorf("close trade: %w", ErrNoPrice)
	}

	if err := e.closeTradeLocked(t, e.last.Close, reason); err != nil {
		return broker.CloseReport{}, err
	}
	return broker.CloseReport{
		PositionID: t.ID,
		Price:      t.ClosePrice,
		Time:       t.CloseTime,
		NetProfit:  t.NetProfit,
	}, nil
}

// CloseAll closes every open trade at the last close.
func (e *Engine) CloseAll(ctx context.Context, reason string) error {
	e.mu.Lock()
	var open []string
	for _, tid := range e.order {
		if e.trades[tid].Open {
			open = append(open, tid)
		}
	}
	e.mu.Unlock()

	for _, tid := range open {
		if _, err := e.CloseTrade(ctx, tid, reason); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) closeTradeLocked(t *Trade, price float64, reason string) error {
	pl := e.profit(t, price)

	t.ClosePrice = price
	t.CloseTime = e.last.Time
	t.NetProfit = pl
	t.Reason = reason
	t.Open = false

	e.balance += pl

	if err := e.journal.RecordTrade(journal.TradeRecord{
		TradeID:    t.ID,
		Instrument: t.Instrument,
		Label:      t.Label,
		Side:       t.Side,
		Units:      t.Units,
		EntryPrice: t.EntryPrice,
		ExitPrice:  price,
		StopPips:   t.StopLossPips,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		RealizedPL: pl,
		Reason:     reason,
	}); err != nil {
		return fmt.Errorf("journal trade: %w", err)
	}

	return e.journal.RecordEquity(journal.EquitySnapshot{
		Time:    t.CloseTime,
		Balance: e.balance,
		Equity:  e.equityLocked(),
	})
}
