// Package interact drives direct manipulation of events on the week grid.
//
// A Controller holds exactly one gesture at a time: creating a new event by
// dragging over empty space, moving an existing card, or resizing one of its
// edges. Hosts feed it pointer samples and scroll offsets; it keeps the drop
// preview geometry and hands a finished event to the Store on release.
//
// Every call is expected on one goroutine (the UI loop). The only work that
// leaves that goroutine is the store write, which the controller never waits
// for.
package interact

import (
	"time"

	"github.com/daviddao/weekgrid/internal/model"
)

// Kind tags the variant of a State.
type Kind int

const (
	KindIdle Kind = iota
	KindCreating
	KindMoving
	KindResizing
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindCreating:
		return "creating"
	case KindMoving:
		return "moving"
	case KindResizing:
		return "resizing"
	}
	return "?"
}

// State is the controller's tagged union: Idle, Creating, Moving or Resizing.
type State interface {
	Kind() Kind
}

// Idle means no gesture is in progress.
type Idle struct{}

func (Idle) Kind() Kind { return KindIdle }

// Creating is a tentative new event on a fixed target day.
type Creating struct {
	Day      int
	DayStart time.Time
	Start    time.Time
	End      time.Time
}

func (Creating) Kind() Kind { return KindCreating }

// Interval returns the drag span ordered so Start < End.
func (c Creating) Interval() model.Interval {
	if c.End.Before(c.Start) {
		return model.Interval{Start: c.End, End: c.Start}
	}
	return model.Interval{Start: c.Start, End: c.End}
}

// Moving relocates Event. Grip is the pointer's offset from the card top,
// captured at pickup.
type Moving struct {
	Event   model.Event
	Grip    float64
	Preview DropPreview
}

func (Moving) Kind() Kind { return KindMoving }

// Edge names one end of an event.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeStart {
		return "start"
	}
	return "end"
}

// Resizing follows the pointer with one edge while Anchored stays fixed.
type Resizing struct {
	Event    model.Event
	Anchored Edge
	Preview  DropPreview
}

func (Resizing) Kind() Kind { return KindResizing }

// DropPreview is the live, uncommitted geometry of a Move or Resize. Valid is
// false while a moved card is outside every day column.
type DropPreview struct {
	Day      int
	DayStart time.Time
	Top      float64
	Height   float64
	Start    time.Time
	End      time.Time
	Valid    bool
}

// Event returns ev relocated to the preview's span.
func (p DropPreview) Event(ev model.Event) model.Event {
	ev.Start, ev.End = p.Start, p.End
	return ev
}

// PointerHistory is the last pointer sample and the scroll offset it was
// taken at, kept so geometry can be recomputed after a scroll alone.
type PointerHistory struct {
	LastPointerY  float64
	LastScrollTop float64
	Valid         bool

	last Pointer
}

// Pointer is one pointer sample from the host. Y is relative to the top of
// the scroll viewport, not the column.
type Pointer struct {
	Day          int
	DayStart     time.Time
	Y            float64
	ColumnHeight float64
	InColumn     bool
}

// inColumn translates p into column coordinates.
func (p Pointer) inColumn(scrollTop float64) Pointer {
	p.Y += scrollTop
	return p
}
