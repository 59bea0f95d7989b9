// Package model defines the calendar event shared by the store, the layout
// engine and the interaction controller.
package model

import (
	"errors"
	"time"
)

var (
	ErrDegenerateInterval = errors.New("event end must be after start")
	ErrMisaligned         = errors.New("event boundary is not on a slot boundary")
	ErrMissingID          = errors.New("event id is empty")
)

// Event is one timed entry on the grid. Start and End are local wall-clock
// instants; End is exclusive.
type Event struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// Interval returns the event's time span.
func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Validate checks the id, ordering and slot alignment of e.
// A zero slot skips the alignment check.
func (e Event) Validate(slot time.Duration) error {
	if e.ID == "" {
		return ErrMissingID
	}
	if !e.End.After(e.Start) {
		return ErrDegenerateInterval
	}
	if slot > 0 && (!Aligned(e.Start, slot) || !Aligned(e.End, slot)) {
		return ErrMisaligned
	}
	return nil
}

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Clip returns the part of iv inside [from, to) and whether it is non-empty.
func (iv Interval) Clip(from, to time.Time) (Interval, bool) {
	start, end := iv.Start, iv.End
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Aligned reports whether t sits on a slot boundary measured from local midnight.
func Aligned(t time.Time, slot time.Duration) bool {
	mins := int(slot / time.Minute)
	if mins <= 0 {
		return true
	}
	return MinutesSinceMidnight(t)%mins == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// MinutesSinceMidnight returns the wall-clock minutes of t in its own location.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Midnight returns local midnight of t's calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
