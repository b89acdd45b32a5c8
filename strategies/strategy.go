package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/indicators"
	"github.com/rustyeddy/supertrend/risk"
)

// BarInput is everything a strategy sees for one closed bar.
type BarInput struct {
	Time  time.Time
	Close float64

	Signal indicators.TrendSignal // current bar
	Prev   indicators.TrendSignal // previous bar

	PipSize  float64
	PipValue float64

	// Open positions under the strategy's label, oldest first.
	Positions []broker.Position
}

// Plan is the outcome of one bar: the daily state after any lazy reset and
// the commands to execute in order.
type Plan struct {
	State    risk.DailyState
	Day      time.Time
	Commands []Command
	Notes    []string
}

func (p *Plan) note(format string, args ...any) {
	p.Notes = append(p.Notes, fmt.Sprintf(format, args...))
}

// BarStrategy is a pure transition: it never touches a gateway.
type BarStrategy interface {
	Name() string
	Plan(state risk.DailyState, in BarInput) Plan
}

// Session answers whether new entries are allowed at t.
type Session interface {
	Contains(t time.Time) bool
}

// AlwaysOpen is a Session with no restriction.
type AlwaysOpen struct{}

func (AlwaysOpen) Contains(time.Time) bool { return true }

// StrategyByName builds a strategy from its registered name.
func StrategyByName(name string, cfg *SupertrendFlipConfig, sess Session) (BarStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return NoopStrategy{}, nil

	case "supertrend-flip", "supertrend", "":
		return NewSupertrendFlip(cfg, sess)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: supertrend-flip, noop)", name)
	}
}
