package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/supertrend/market"
)

// CSVBars reads closed bars from CSV.
//
// Without a header, rows are positional:
//
//	time,open,high,low,close[,volume]
//
// With a header the columns are matched by name, so the candle CSV written by
// the oanda downloader (time,instrument,granularity,complete,volume,o,h,l,c)
// reads as is. Rows with complete=false are skipped.
//
// time is RFC3339, RFC3339Nano or unix seconds. Bars outside [From, To) are
// skipped when the bounds are set.
type CSVBars struct {
	f    io.Closer
	r    *csv.Reader
	from time.Time
	to   time.Time

	cols     columns
	sawFirst bool
	line     int
}

type columns struct {
	time, open, high, low, close, volume, complete int
}

var positional = columns{time: 0, open: 1, high: 2, low: 3, close: 4, volume: 5, complete: -1}

func NewCSVBars(path string, from, to time.Time) (*CSVBars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	c := NewCSVBarsReader(f, from, to)
	c.f = f
	return c, nil
}

// NewCSVBarsReader reads from r. Close does not close r.
func NewCSVBarsReader(r io.Reader, from, to time.Time) *CSVBars {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVBars{r: cr, from: from, to: to, cols: positional}
}

func (c *CSVBars) Close() error {
	if c.f != nil {
		return c.f.Close()
	}
	return nil
}

func (c *CSVBars) Next(ctx context.Context) (market.Bar, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return market.Bar{}, false, err
		}
		row, err := c.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("feed: %w", err)
		}
		c.line++
		if len(row) == 0 {
			continue
		}

		if !c.sawFirst {
			c.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				cols, err := headerColumns(row)
				if err != nil {
					return market.Bar{}, false, err
				}
				c.cols = cols
				continue
			}
		}

		b, ok, err := c.cols.parse(row)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("feed: line %d: %w", c.line, err)
		}
		if !ok || !inRange(b.Time, c.from, c.to) {
			continue
		}
		return b, true, nil
	}
}

func headerColumns(row []string) (columns, error) {
	cols := columns{time: -1, open: -1, high: -1, low: -1, close: -1, volume: -1, complete: -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "timestamp":
			cols.time = i
		case "open", "o":
			cols.open = i
		case "high", "h":
			cols.high = i
		case "low", "l":
			cols.low = i
		case "close", "c":
			cols.close = i
		case "volume", "v":
			cols.volume = i
		case "complete":
			cols.complete = i
		}
	}
	if cols.time < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return cols, fmt.Errorf("feed: header needs time,open,high,low,close: %v", row)
	}
	return cols, nil
}

func (c columns) parse(row []string) (market.Bar, bool, error) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	if field(c.time) == "" || field(c.close) == "" {
		return market.Bar{}, false, nil
	}
	if c.complete >= 0 && strings.EqualFold(field(c.complete), "false") {
		return market.Bar{}, false, nil
	}

	t, err := parseTime(field(c.time))
	if err != nil {
		return market.Bar{}, false, err
	}

	var b market.Bar
	b.Time = t
	for _, p := range []struct {
		col int
		dst *float64
	}{{c.open, &b.Open}, {c.high, &b.High}, {c.low, &b.Low}, {c.close, &b.Close}} {
		v, err := strconv.ParseFloat(field(p.col), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad price %q: %w", field(p.col), err)
		}
		*p.dst = v
	}
	if s := field(c.volume); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", s, err)
		}
		b.Volume = v
	}
	return b, true, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// WriteCSV writes bars with a time,open,high,low,close,volume header, the
// layout CSVBars reads back.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	p := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	for _, b := range bars {
		row := []string{b.Time.UTC().Format(time.RFC3339), p(b.Open), p(b.High), p(b.Low), p(b.Close), p(b.Volume)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
