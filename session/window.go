// Package session decides whether a timestamp falls inside the trading
// window of a venue's local clock.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Bundled zone data so the window resolves on hosts without zoneinfo.
	_ "time/tzdata"
)

var (
	ErrTimeZoneResolution = errors.New("session: time zone resolution failure")
	ErrBadClock           = errors.New("session: bad clock time")
)

const (
	DefaultZone  = "America/New_York"
	DefaultStart = "09:30"
	DefaultEnd   = "15:30"
)

// Window is a daily local time-of-day interval, inclusive of both bounds.
type Window struct {
	loc   *time.Location
	start time.Duration
	end   time.Duration
}

// New resolves zone and parses start/end as HH:MM or HH:MM:SS.
func New(zone, start, end string) (*Window, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTimeZoneResolution, zone, err)
	}
	s, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	if e < s {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrBadClock, end, start)
	}
	return &Window{loc: loc, start: s, end: e}, nil
}

// Default is the 09:30-15:30 New York window.
func Default() (*Window, error) {
	return New(DefaultZone, DefaultStart, DefaultEnd)
}

// Contains reports whether t, converted to the window's zone, lies within
// [start, end].
func (w *Window) Contains(t time.Time) bool {
	local := t.In(w.loc)
	tod := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return tod >= w.start && tod <= w.end
}

func (w *Window) Location() *time.Location {
	return w.loc
}

func (w *Window) String() string {
	return fmt.Sprintf("%s-%s %s", clock(w.start), clock(w.end), w.loc)
}

func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
}

func clock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}
