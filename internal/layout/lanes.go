// Package layout assigns side-by-side lanes to overlapping events of one day.
//
// Two events compete for a lane only when their intervals overlap and their
// starts are less than ConflictWindow apart. Long events whose starts are
// further apart are not separated even though they overlap on screen; callers
// that need strict interval packing must not rely on this package.
package layout

import (
	"sort"
	"time"

	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// ConflictWindow is the start-time proximity below which overlapping events
// are split into separate lanes.
const ConflictWindow = 30 * time.Minute

// DateEvent is an event restricted to one displayed day together with its
// lane assignment. LaneCount is 0 for events that render full width.
type DateEvent struct {
	model.Event
	LaneIndex int
	LaneCount int
}

// Pack assigns lanes using ConflictWindow.
func Pack(events []model.Event) []DateEvent {
	return PackWithWindow(events, ConflictWindow)
}

// PackWithWindow assigns lanes to events. The result is ordered by start
// ascending, longer events first on ties.
func PackWithWindow(events []model.Event, window time.Duration) []DateEvent {
	out := make([]DateEvent, len(events))
	for i, ev := range events {
		out[i] = DateEvent{Event: ev}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if da, db := a.Duration(), b.Duration(); da != db {
			return da > db
		}
		return a.ID < b.ID
	})

	// candidates[i] holds every lane count proposed for out[i], by itself and
	// by later events that conflict with it.
	candidates := make([][]int, len(out))
	var hits []int
	for i := range out {
		hits = hits[:0]
		for j := 0; j < i; j++ {
			if conflicting(out[i].Event, out[j].Event, window) {
				hits = append(hits, j)
			}
		}
		if len(hits) == 0 {
			continue
		}
		out[i].LaneIndex = len(hits)
		candidates[i] = append(candidates[i], out[i].LaneIndex)
		for _, j := range hits {
			candidates[j] = append(candidates[j], out[i].LaneIndex)
		}
	}
	for i := range out {
		for _, c := range candidates[i] {
			if c > out[i].LaneCount {
				out[i].LaneCount = c
			}
		}
	}
	return out
}

func conflicting(a, b model.Event, window time.Duration) bool {
	if !a.Interval().Overlaps(b.Interval()) {
		return false
	}
	d := a.Start.Sub(b.Start)
	if d < 0 {
		d = -d
	}
	return d < window
}

// ForDay keeps the events touching day and packs them.
func ForDay(events []model.Event, day time.Time) []DateEvent {
	from, to := timegrid.StartOfDay(day), timegrid.EndOfDay(day)
	var touching []model.Event
	for _, ev := range events {
		if _, ok := ev.Interval().Clip(from, to); ok {
			touching = append(touching, ev)
		}
	}
	return Pack(touching)
}
