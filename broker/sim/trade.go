package sim

import (
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/market"
)

type Trade struct {
	broker.Position

	// Realized
	ClosePrice float64
	CloseTime  time.Time
	Reason     string
	Open       bool
}

// stopPrice is the absolute stop level implied by the stop distance.
func (t *Trade) stopPrice(pip float64) (float64, bool) {
	if t.StopLossPips <= 0 {
		return 0, false
	}
	return t.EntryPrice - t.Side.Sign()*t.StopLossPips*pip, true
}

func (t *Trade) takeProfitPrice(pip float64) (float64, bool) {
	if t.TakeProfitPips <= 0 {
		return 0, false
	}
	return t.EntryPrice + t.Side.Sign()*t.TakeProfitPips*pip, true
}

// triggerStopLoss reports whether the bar's range touched the stop.
func (t *Trade) triggerStopLoss(b market.Bar, pip float64) (float64, bool) {
	stop, ok := t.stopPrice(pip)
	if !ok {
		return 0, false
	}
	if t.Side == market.Long && b.Low <= stop {
		return stop, true
	}
	if t.Side == market.Short && b.High >= stop {
		return stop, true
	}
	return 0, false
}

func (t *Trade) triggerTakeProfit(b market.Bar, pip float64) (float64, bool) {
	tp, ok := t.takeProfitPrice(pip)
	if !ok {
		return 0, false
	}
	if t.Side == market.Long && b.High >= tp {
		return tp, true
	}
	if t.Side == market.Short && b.Low <= tp {
		return tp, true
	}
	return 0, false
}
