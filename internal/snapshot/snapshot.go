// Package snapshot builds immutable week views from the event store.
//
// A WeekSnapshot captures the events of one displayed week together with
// their lane layout. Snapshots are rebuilt on each DB change and swapped
// into the UI model whole.
package snapshot

import (
	"context"
	"time"

	"github.com/daviddao/weekgrid/internal/layout"
	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// DaysPerWeek is the number of day columns in a snapshot.
const DaysPerWeek = 7

// Source is the read side of the event store.
type Source interface {
	List(ctx context.Context, from, to time.Time) ([]model.Event, error)
	Count(ctx context.Context) (int, error)
}

// DaySnapshot is one day column with its events already packed into lanes.
type DaySnapshot struct {
	Date   time.Time
	Events []layout.DateEvent
}

// WeekSnapshot is an immutable, self-contained view of one week.
type WeekSnapshot struct {
	WeekStart time.Time
	Days      [DaysPerWeek]DaySnapshot

	// Events are the distinct events touching the week, in store order.
	Events []model.Event

	WeekEvents  int
	TotalEvents int

	BuiltAt time.Time
}

// WeekStart returns local midnight of the first day of the week holding t.
func WeekStart(t time.Time, first time.Weekday) time.Time {
	day := timegrid.StartOfDay(t)
	back := (int(day.Weekday()) - int(first) + DaysPerWeek) % DaysPerWeek
	return day.AddDate(0, 0, -back)
}

// Build queries src for the week starting at weekStart and lays it out.
func Build(ctx context.Context, src Source, weekStart time.Time) (*WeekSnapshot, error) {
	weekStart = timegrid.StartOfDay(weekStart)
	weekEnd := weekStart.AddDate(0, 0, DaysPerWeek)

	events, err := src.List(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	return Assemble(weekStart, events, total, time.Now()), nil
}

// Assemble lays out events for the week starting at weekStart. events should
// already be limited to the week; ones that miss it are kept in Events but
// land in no day.
func Assemble(weekStart time.Time, events []model.Event, total int, builtAt time.Time) *WeekSnapshot {
	weekStart = timegrid.StartOfDay(weekStart)
	snap := &WeekSnapshot{
		WeekStart:   weekStart,
		Events:      events,
		WeekEvents:  len(events),
		TotalEvents: total,
		BuiltAt:     builtAt,
	}
	for i := range snap.Days {
		day := weekStart.AddDate(0, 0, i)
		snap.Days[i] = DaySnapshot{Date: day, Events: layout.ForDay(events, day)}
	}
	return snap
}

// With returns a new snapshot with ev inserted or replacing the event with
// the same ID. The receiver is not modified.
func (s *WeekSnapshot) With(ev model.Event) *WeekSnapshot {
	events := make([]model.Event, 0, len(s.Events)+1)
	total := s.TotalEvents + 1
	for _, e := range s.Events {
		if e.ID == ev.ID {
			total--
			continue
		}
		events = append(events, e)
	}
	end := s.WeekStart.AddDate(0, 0, DaysPerWeek)
	if _, ok := ev.Interval().Clip(s.WeekStart, end); ok {
		events = append(events, ev)
	}
	return Assemble(s.WeekStart, events, total, s.BuiltAt)
}

// Without returns a new snapshot lacking the event with id.
func (s *WeekSnapshot) Without(id string) *WeekSnapshot {
	events := make([]model.Event, 0, len(s.Events))
	total := s.TotalEvents
	for _, e := range s.Events {
		if e.ID == id {
			total--
			continue
		}
		events = append(events, e)
	}
	return Assemble(s.WeekStart, events, total, s.BuiltAt)
}

// Event returns the event with id.
func (s *WeekSnapshot) Event(id string) (model.Event, bool) {
	for _, ev := range s.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// DayIndex returns the column of t, or -1 when t is outside the week.
func (s *WeekSnapshot) DayIndex(t time.Time) int {
	for i, d := range s.Days {
		if !t.Before(d.Date) && t.Before(timegrid.EndOfDay(d.Date)) {
			return i
		}
	}
	return -1
}
