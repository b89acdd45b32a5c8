// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/supertrend/market"
)

// TradeRecord is one closed position.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Label      string
	Side       market.Side
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	StopPips   float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// Outcome is WIN for a positive realized P/L and LOSS otherwise.
func (t TradeRecord) Outcome() string {
	if t.RealizedPL > 0 {
		return "WIN"
	}
	return "LOSS"
}

// EquitySnapshot is the account after a close.
type EquitySnapshot struct {
	Time    time.Time
	Balance float64
	Equity  float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard drops every record.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error     { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error                      { return nil }
