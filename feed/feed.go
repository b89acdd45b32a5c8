package feed

import (
	"context"

	"github.com/rustyeddy/supertrend/market"
)

// Feed yields closed bars in time order. Next returns ok=false once the
// source is exhausted.
type Feed interface {
	Next(ctx context.Context) (bar market.Bar, ok bool, err error)
	Close() error
}

// Slice is an in-memory feed, mostly for tests and replays.
type Slice struct {
	Bars []market.Bar
	i    int
}

func (s *Slice) Next(ctx context.Context) (market.Bar, bool, error) {
	if err := ctx.Err(); err != nil {
		return market.Bar{}, false, err
	}
	if s.i >= len(s.Bars) {
		return market.Bar{}, false, nil
	}
	b := s.Bars[s.i]
	s.i++
	return b, true, nil
}

func (s *Slice) Close() error { return nil }
