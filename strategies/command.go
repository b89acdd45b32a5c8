package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/risk"
)

type CommandKind int

const (
	CloseCommand CommandKind = iota + 1
	OpenCommand
)

func (k CommandKind) String() string {
	switch k {
	case CloseCommand:
		return "close"
	case OpenCommand:
		return "open"
	default:
		return "unknown"
	}
}

// Command is one gateway action.
type Command struct {
	Kind     CommandKind
	Position broker.Position     // CloseCommand
	Order    broker.OrderRequest // OpenCommand
	Reason   string

	// Reversal marks an open that follows a close on the same bar. It only
	// stands if that close realizes a loss or breaks even.
	Reversal bool
}

func (c Command) String() string {
	if c.Kind == CloseCommand {
		return fmt.Sprintf("close %s %s (%s)", c.Position.Side, c.Position.ID, c.Reason)
	}
	return fmt.Sprintf("open %s %.2f sl=%.1f (%s)", c.Order.Side, c.Order.Units, c.Order.StopLossPips, c.Reason)
}

// Apply is the effect of a successful command on the daily state.
// netProfit is the realized P/L reported for a close.
func (c Command) Apply(s risk.DailyState, day time.Time, netProfit float64) risk.DailyState {
	switch c.Kind {
	case CloseCommand:
		return s.RecordOutcome(netProfit)
	case OpenCommand:
		return s.RecordTrade(day)
	}
	return s
}
