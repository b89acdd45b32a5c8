package risk

import "time"

// Limits is the daily cap. Trading halts for the rest of the calendar day
// once MaxTradesPerDay entries were taken or, with StopAfterWin, once one
// trade closed in profit.
type Limits struct {
	MaxTradesPerDay int
	StopAfterWin    bool
}

func DefaultLimits() Limits {
	return Limits{MaxTradesPerDay: 2, StopAfterWin: true}
}

// DailyState is the per-label trading counter for the current calendar day.
// It is a value: every operation returns the next state.
type DailyState struct {
	// Date is the calendar day the counters belong to.
	Date          time.Time
	LastTradeDate time.Time
	TradesToday   int
	HasWonToday   bool
}

// DayOf returns the calendar date of t in loc as midnight UTC, so dates from
// different zones compare with Equal/Before.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResetIfNewDay clears the counters the first time a later day is observed.
// Dates older than the current one (replayed data) leave it untouched.
func (s DailyState) ResetIfNewDay(date time.Time) DailyState {
	if !date.After(s.Date) {
		return s
	}
	s.Date = date
	s.TradesToday = 0
	s.HasWonToday = false
	return s
}

func (s DailyState) CanTrade(l Limits) bool {
	if s.TradesToday >= l.MaxTradesPerDay {
		return false
	}
	return !(l.StopAfterWin && s.HasWonToday)
}

func (s DailyState) RecordTrade(date time.Time) DailyState {
	s.TradesToday++
	s.LastTradeDate = date
	if date.After(s.Date) {
		s.Date = date
	}
	return s
}

func (s DailyState) RecordOutcome(netProfit float64) DailyState {
	if netProfit > 0 {
		s.HasWonToday = true
	}
	return s
}
