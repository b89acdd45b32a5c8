package market

import "time"

// Bar is a closed OHLC candle. Time is the candle close in UTC.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether the bar has a timestamp and a sane price range.
func (b Bar) Valid() bool {
	if b.Time.IsZero() {
		return false
	}
	if b.Close <= 0 || b.High < b.Low {
		return false
	}
	return true
}

// Median is the (high+low)/2 price used by band indicators.
func (b Bar) Median() float64 {
	return (b.High + b.Low) / 2
}
