package oanda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/supertrend/market"
)

// granularities maps the v20 candle granularities to their length.
var granularities = map[string]time.Duration{
	"S5": 5 * time.Second, "S10": 10 * time.Second, "S15": 15 * time.Second, "S30": 30 * time.Second,
	"M1": time.Minute, "M2": 2 * time.Minute, "M4": 4 * time.Minute, "M5": 5 * time.Minute,
	"M10": 10 * time.Minute, "M15": 15 * time.Minute, "M30": 30 * time.Minute,
	"H1": time.Hour, "H2": 2 * time.Hour, "H3": 3 * time.Hour, "H4": 4 * time.Hour,
	"H6": 6 * time.Hour, "H8": 8 * time.Hour, "H12": 12 * time.Hour,
	"D": 24 * time.Hour,
}

// GranularityDuration returns the candle length for g.
func GranularityDuration(g string) (time.Duration, error) {
	d, ok := granularities[strings.ToUpper(strings.TrimSpace(g))]
	if !ok {
		return 0, fmt.Errorf("oanda: unsupported granularity %q", g)
	}
	return d, nil
}

type CandlesOptions struct {
	Instrument  string
	Granularity string // e.g. M1, M15, H1
	Count       int    // optional (used if >0)
	From        time.Time
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Candles []struct {
		Complete bool      `json:"complete"`
		Time     time.Time `json:"time"`
		Volume   int       `json:"volume"`
		Mid      *ohlc     `json:"mid,omitempty"`
	} `json:"candles"`
}

// Candles returns the complete mid candles as bars stamped with their close
// time. Incomplete candles are dropped.
func (c *Client) Candles(ctx context.Context, opts CandlesOptions) ([]market.Bar, error) {
	if opts.Instrument == "" {
		return nil, fmt.Errorf("oanda: missing instrument")
	}
	length, err := GranularityDuration(opts.Granularity)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("granularity", strings.ToUpper(opts.Granularity))
	q.Set("price", "M")
	if !opts.From.IsZero() {
		q.Set("from", opts.From.UTC().Format(time.RFC3339Nano))
		q.Set("includeFirst", "false")
	} else if opts.Count > 0 {
		if opts.Count > 5000 {
			return nil, fmt.Errorf("oanda: count cannot exceed 5000")
		}
		q.Set("count", strconv.Itoa(opts.Count))
	}

	var cr candlesResp
	path := fmt.Sprintf("/v3/instruments/%s/candles", opts.Instrument)
	if _, err := c.do(ctx, "GET", path, q, nil, &cr); err != nil {
		return nil, err
	}

	bars := make([]market.Bar, 0, len(cr.Candles))
	for _, cd := range cr.Candles {
		if !cd.Complete || cd.Mid == nil {
			continue
		}
		b := market.Bar{Time: cd.Time.Add(length).UTC(), Volume: float64(cd.Volume)}
		for _, p := range []struct {
			s   string
			dst *float64
		}{{cd.Mid.O, &b.Open}, {cd.Mid.H, &b.High}, {cd.Mid.L, &b.Low}, {cd.Mid.C, &b.Close}} {
			v, err := strconv.ParseFloat(p.s, 64)
			if err != nil {
				return nil, fmt.Errorf("oanda: candle %s price %q: %w", cd.Time, p.s, err)
			}
			*p.dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// CandleFeed polls for newly completed candles. The first call loads
// Count candles of history so the indicator warms up; later calls wait for
// the next candle to close.
type CandleFeed struct {
	Client      *Client
	Instrument  string
	Granularity string
	Count       int

	// Poll is the wait between empty polls. Defaults to a fifth of the
	// candle length, at least one second.
	Poll time.Duration

	pending []market.Bar
	last    time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func (f *CandleFeed) Next(ctx context.Context) (market.Bar, bool, error) {
	if f.sleep == nil {
		f.sleep = sleepCtx
	}
	for len(f.pending) == 0 {
		opts := CandlesOptions{Instrument: f.Instrument, Granularity: f.Granularity, Count: f.Count}
		if !f.last.IsZero() {
			length, err := GranularityDuration(f.Granularity)
			if err != nil {
				return market.Bar{}, false, err
			}
			// from is the open time of the last delivered candle
			opts.From = f.last.Add(-length)
		}
		bars, err := f.Client.Candles(ctx, opts)
		if err != nil {
			return market.Bar{}, false, err
		}
		for _, b := range bars {
			if b.Time.After(f.last) {
				f.pending = append(f.pending, b)
			}
		}
		if len(f.pending) > 0 {
			break
		}
		if err := f.sleep(ctx, f.pollInterval()); err != nil {
			return market.Bar{}, false, err
		}
	}

	b := f.pending[0]
	f.pending = f.pending[1:]
	f.last = b.Time
	return b, true, nil
}

func (f *CandleFeed) Close() error { return nil }

func (f *CandleFeed) pollInterval() time.Duration {
	if f.Poll > 0 {
		return f.Poll
	}
	d, err := GranularityDuration(f.Granularity)
	if err != nil || d/5 < time.Second {
		return time.Second
	}
	return d / 5
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
