package strategies

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/indicators"
	"github.com/rustyeddy/supertrend/market"
	"github.com/rustyeddy/supertrend/risk"
)

// SupertrendFlip trades a single instrument on Supertrend line flips.
// - Enters only on the first bar of a new trend segment, inside the session
// - Exits when the position's own trend line goes inactive
// - Reverses after a losing exit if the daily cap and session allow it
// - Stops for the day after 2 entries or 1 winning exit
type SupertrendFlip struct {
	*SupertrendFlipConfig
	session Session
}

type SupertrendFlipConfig struct {
	Instrument     string  `json:"instrument"`
	Label          string  `json:"label"`
	RiskAmount     float64 `json:"risk-amount"`      // account currency per trade, e.g. 1000
	TakeProfitPips float64 `json:"take-profit-pips"` // 100000 = effectively disabled

	Limits risk.Limits `json:"-"`

	// DayLocation is the venue clock used for the daily cap's calendar date.
	DayLocation *time.Location `json:"-"`
}

func SupertrendFlipConfigDefaults() *SupertrendFlipConfig {
	return &SupertrendFlipConfig{
		Instrument:     "NAS100_USD",
		Label:          "SupertrendTEST",
		RiskAmount:     1000,
		TakeProfitPips: 100000,
		Limits:         risk.DefaultLimits(),
		DayLocation:    time.UTC,
	}
}

func NewSupertrendFlip(cfg *SupertrendFlipConfig, sess Session) (*SupertrendFlip, error) {
	if cfg == nil {
		cfg = SupertrendFlipConfigDefaults()
	}
	if sess == nil {
		return nil, errors.New("supertrend-flip: session is required")
	}
	if cfg.Label == "" {
		return nil, errors.New("supertrend-flip: label is required")
	}
	if cfg.RiskAmount <= 0 {
		return nil, fmt.Errorf("supertrend-flip: risk amount must be positive, got %v", cfg.RiskAmount)
	}
	if cfg.TakeProfitPips <= 0 {
		return nil, fmt.Errorf("supertrend-flip: take profit must be positive, got %v", cfg.TakeProfitPips)
	}
	if cfg.Limits.MaxTradesPerDay <= 0 {
		cfg.Limits = risk.DefaultLimits()
	}
	if cfg.DayLocation == nil {
		cfg.DayLocation = time.UTC
	}
	return &SupertrendFlip{SupertrendFlipConfig: cfg, session: sess}, nil
}

func (s *SupertrendFlip) Name() string { return "supertrend-flip" }

// Plan decides one closed bar. An owned position is always handled first
// and blocks new entries for the bar.
func (s *SupertrendFlip) Plan(state risk.DailyState, in BarInput) Plan {
	p := Plan{State: state, Day: risk.DayOf(in.Time, s.DayLocation)}

	if owned := s.owned(in.Positions); len(owned) > 0 {
		s.closeOrReverse(&p, in, owned)
		return p
	}

	if !s.session.Contains(in.Time) {
		return p
	}

	p.State = p.State.ResetIfNewDay(p.Day)
	if !p.State.CanTrade(s.Limits) {
		p.note("daily cap: trades=%d won=%v", p.State.TradesToday, p.State.HasWonToday)
		return p
	}

	switch f := DetectFlip(in.Prev, in.Signal); f {
	case BullishFlip:
		up, _ := in.Signal.Up.Value()
		s.open(&p, in, market.Long, up, f.String(), false)
	case BearishFlip:
		down, _ := in.Signal.Down.Value()
		s.open(&p, in, market.Short, down, f.String(), false)
	}
	return p
}

func (s *SupertrendFlip) owned(all []broker.Position) []broker.Position {
	var out []broker.Position
	for _, pos := range all {
		if pos.Label == s.Label {
			out = append(out, pos)
		}
	}
	return out
}

// closeOrReverse acts on the first owned position whose trend line ended.
// Positions after it are not looked at this bar.
func (s *SupertrendFlip) closeOrReverse(p *Plan, in BarInput, owned []broker.Position) {
	for _, pos := range owned {
		var (
			reverse market.Side
			ref     indicators.Level
			reason  string
		)
		switch {
		case pos.Side == market.Short && !in.Signal.Down.IsActive():
			reverse, ref, reason = market.Long, in.Signal.Up, "DownTrendEnded"
		case pos.Side == market.Long && !in.Signal.Up.IsActive():
			reverse, ref, reason = market.Short, in.Signal.Down, "UpTrendEnded"
		default:
			continue
		}

		p.Commands = append(p.Commands, Command{Kind: CloseCommand, Position: pos, Reason: reason})
		p.State = p.State.ResetIfNewDay(p.Day)

		if pos.NetProfit > 0 {
			return
		}
		if !p.State.CanTrade(s.Limits) {
			p.note("no reversal, daily cap: trades=%d", p.State.TradesToday)
			return
		}
		if !s.session.Contains(in.Time) {
			p.note("no reversal, outside session")
			return
		}
		price, ok := ref.Value()
		if !ok {
			p.note("no reversal, %s line inactive", reverse)
			return
		}
		name := "ReverseToLong"
		if reverse == market.Short {
			name = "ReverseToShort"
		}
		s.open(p, in, reverse, price, name, true)
		return
	}
}

// open sizes an order whose stop sits on the trend line at stopRef.
func (s *SupertrendFlip) open(p *Plan, in BarInput, side market.Side, stopRef float64, reason string, reversal bool) {
	stopPips := side.Sign() * risk.StopPips(in.Close, stopRef, in.PipSize)

	units, err := risk.Size(s.RiskAmount, stopPips, in.PipValue)
	if err != nil {
		p.note("%s skipped: %v", reason, err)
		return
	}

	p.Commands = append(p.Commands, Command{
		Kind: OpenCommand,
		Order: broker.OrderRequest{
			Instrument:     s.Instrument,
			Side:           side,
			Units:          units,
			Label:          s.Label,
			StopLossPips:   stopPips,
			TakeProfitPips: s.TakeProfitPips,
		},
		Reason:   reason,
		Reversal: reversal,
	})
}
