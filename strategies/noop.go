package strategies

import "github.com/rustyeddy/supertrend/risk"

// NoopStrategy never trades. Useful to exercise a feed and gateway.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) Plan(state risk.DailyState, in BarInput) Plan {
	_ = in
	return Plan{State: state}
}
