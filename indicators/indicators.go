// Package indicators provides streaming technical indicators over closed bars.
package indicators

import "github.com/rustyeddy/supertrend/market"

// Indicator computes streaming state from closed bars.
// It is deterministic and safe to use in live and replayed feeds.
type Indicator interface {
	// Name returns a stable identifier like "ATR(14)" or "Supertrend(10,5.7)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether the indicator output is meaningful.
	Ready() bool
}

type ValueF64 interface {
	// Value returns the current indicator value. If !Ready(), it returns 0.
	Value() float64
}

// TrendIndicator reports an up and a down trend line per bar.
type TrendIndicator interface {
	Indicator
	Signal() TrendSignal
}
