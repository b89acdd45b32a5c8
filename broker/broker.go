package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/supertrend/market"
)

var (
	ErrOrderRejected    = errors.New("order rejected")
	ErrPositionNotFound = errors.New("position not found")
)

// Gateway is the order execution side of a venue. Calls are synchronous;
// a returned error means the action did not happen.
type Gateway interface {
	// Positions returns the open positions tagged with label, oldest first.
	Positions(ctx context.Context, label string) ([]Position, error)
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (OrderFill, error)
	ClosePosition(ctx context.Context, positionID string) (CloseReport, error)
}

// BarObserver is implemented by gateways that price positions from the
// strategy's own bar stream (the paper gateway).
type BarObserver interface {
	UpdateBar(b market.Bar) error
}

type Position struct {
	ID         string
	Instrument string
	Label      string
	Side       market.Side
	Units      float64
	EntryPrice float64
	OpenTime   time.Time

	StopLossPips   float64
	TakeProfitPips float64

	// NetProfit is the current P/L in account currency; the realized
	// P/L once the position is closed.
	NetProfit float64
}

type OrderRequest struct {
	Instrument     string
	Side           market.Side
	Units          float64
	Label          string
	StopLossPips   float64
	TakeProfitPips float64
}

// Validate rejects requests no venue would fill.
func (r OrderRequest) Validate() error {
	if r.Instrument == "" {
		return fmt.Errorf("%w: instrument is required", ErrOrderRejected)
	}
	if r.Side != market.Long && r.Side != market.Short {
		return fmt.Errorf("%w: bad side %v", ErrOrderRejected, r.Side)
	}
	if r.Units <= 0 {
		return fmt.Errorf("%w: units must be positive, got %v", ErrOrderRejected, r.Units)
	}
	if r.StopLossPips <= 0 {
		return fmt.Errorf("%w: stop loss must be positive, got %v pips", ErrOrderRejected, r.StopLossPips)
	}
	return nil
}

type OrderFill struct {
	PositionID string
	Instrument string
	Side       market.Side
	Units      float64
	Price      float64
	Time       time.Time
}

type CloseReport struct {
	PositionID string
	Price      float64
	Time       time.Time
	NetProfit  float64
}
