package indicators

import (
	"fmt"

	"github.com/rustyeddy/supertrend/market"
)

// Supertrend is an ATR band indicator that exposes two lines:
//   - Up is active while the trend is up and sits on the lower band.
//   - Down is active while the trend is down and sits on the upper band.
//
// Exactly one line is active once the indicator is ready; both are
// inactive during warmup.
type Supertrend struct {
	period     int
	multiplier float64
	name       string

	atr *ATR

	upper     float64
	lower     float64
	trend     int // +1 up, -1 down
	prevClose float64
	ready     bool
}

func NewSupertrend(period int, multiplier float64) *Supertrend {
	if period <= 0 {
		panic("Supertrend period must be > 0")
	}
	if multiplier <= 0 {
		panic("Supertrend multiplier must be > 0")
	}
	return &Supertrend{
		period:     period,
		multiplier: multiplier,
		name:       fmt.Sprintf("Supertrend(%d,%g)", period, multiplier),
		atr:        NewATR(period),
	}
}

func (s *Supertrend) Name() string { return s.name }
func (s *Supertrend) Warmup() int  { return s.atr.Warmup() }
func (s *Supertrend) Ready() bool  { return s.ready }

func (s *Supertrend) Reset() {
	s.atr.Reset()
	s.upper, s.lower = 0, 0
	s.trend = 0
	s.prevClose = 0
	s.ready = false
}

// Update consumes the next closed bar.
func (s *Supertrend) Update(b market.Bar) {
	s.atr.Update(b)
	if !s.atr.Ready() {
		s.prevClose = b.Close
		return
	}

	band := s.multiplier * s.atr.Value()
	mid := b.Median()
	basicUpper := mid + band
	basicLower := mid - band

	if !s.ready {
		s.upper, s.lower = basicUpper, basicLower
		s.trend = 1
		if b.Close < mid {
			s.trend = -1
		}
		s.prevClose = b.Close
		s.ready = true
		return
	}

	// Bands only ratchet toward price while the previous close respects them.
	upper := basicUpper
	if basicUpper > s.upper && s.prevClose <= s.upper {
		upper = s.upper
	}
	lower := basicLower
	if basicLower < s.lower && s.prevClose >= s.lower {
		lower = s.lower
	}

	switch {
	case s.trend < 0 && b.Close > s.upper:
		s.trend = 1
	case s.trend > 0 && b.Close < s.lower:
		s.trend = -1
	}

	s.upper, s.lower = upper, lower
	s.prevClose = b.Close
}

// Signal returns the trend lines for the last bar passed to Update.
func (s *Supertrend) Signal() TrendSignal {
	if !s.ready {
		return TrendSignal{}
	}
	if s.trend > 0 {
		return TrendSignal{Up: Active(s.lower), Down: Inactive()}
	}
	return TrendSignal{Up: Inactive(), Down: Active(s.upper)}
}
