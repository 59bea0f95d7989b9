package interact

import (
	"time"

	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// Gesture is one start → update* → commit-or-cancel lifecycle. Create and
// Resize are fed raw pointer samples; Move is the same contract standing in
// for a drag-and-drop pickup. All pointers passed to a Gesture are in column
// coordinates.
type Gesture interface {
	State() State
	Update(p Pointer)
	Preview() (DropPreview, bool)
	// Commit returns the event to persist, or false when the gesture ends
	// without a mutation.
	Commit() (model.Event, bool)
	Cancel()
}

type createGesture struct {
	m     timegrid.Mapper
	state Creating
	done  bool
}

func startCreate(m timegrid.Mapper, p Pointer) *createGesture {
	start := m.PixelToTime(p.DayStart, p.Y, timegrid.Floor)
	if last := timegrid.EndOfDay(p.DayStart).Add(-m.SlotDuration()); start.After(last) {
		start = last
	}
	return &createGesture{
		m: m,
		state: Creating{
			Day:      p.Day,
			DayStart: p.DayStart,
			Start:    start,
			End:      start.Add(m.SlotDuration()),
		},
	}
}

func (g *createGesture) State() State { return g.state }

// Update moves the free boundary. The target day never changes, and the
// boundary is kept off the start so the span is never empty.
func (g *createGesture) Update(p Pointer) {
	if g.done {
		return
	}
	end := g.m.PixelToTime(g.state.DayStart, p.Y, timegrid.Round)
	if end.Equal(g.state.Start) {
		end = g.state.Start.Add(g.m.SlotDuration())
	}
	g.state.End = end
}

func (g *createGesture) Preview() (DropPreview, bool) {
	if g.done {
		return DropPreview{}, false
	}
	iv := g.state.Interval()
	return DropPreview{
		Day:      g.state.Day,
		DayStart: g.state.DayStart,
		Top:      g.m.TimeToPixel(iv.Start),
		Height:   g.m.HeightForInterval(iv, g.state.DayStart),
		Start:    iv.Start,
		End:      iv.End,
		Valid:    true,
	}, true
}

func (g *createGesture) Commit() (model.Event, bool) {
	if g.done || g.state.Start.IsZero() || g.state.End.IsZero() {
		return model.Event{}, false
	}
	g.done = true
	iv := g.state.Interval()
	return model.Event{Start: iv.Start, End: iv.End}, true
}

func (g *createGesture) Cancel() { g.done = true }

type moveGesture struct {
	m          timegrid.Mapper
	state      Moving
	cardHeight float64
	duration   time.Duration
	done       bool
}

// startMove picks up ev at pointer p. The card's own top and height come
// from the mapper so the grip matches what the host rendered.
func startMove(m timegrid.Mapper, ev model.Event, p Pointer) *moveGesture {
	dayStart := timegrid.StartOfDay(ev.Start)
	top := m.TimeToPixel(ev.Start)
	height := m.HeightForInterval(ev.Interval(), dayStart)
	return &moveGesture{
		m: m,
		state: Moving{
			Event: ev,
			Grip:  p.Y - top,
			Preview: DropPreview{
				Day:      p.Day,
				DayStart: dayStart,
				Top:      top,
				Height:   height,
				Start:    ev.Start,
				End:      ev.End,
				Valid:    true,
			},
		},
		cardHeight: height,
		duration:   ev.Duration(),
	}
}

func (g *moveGesture) State() State { return g.state }

func (g *moveGesture) Update(p Pointer) {
	if g.done {
		return
	}
	if !p.InColumn {
		g.state.Preview.Valid = false
		return
	}
	colHeight := p.ColumnHeight
	if colHeight <= 0 {
		colHeight = g.m.DayHeight()
	}
	top := clamp(p.Y-g.state.Grip, 0, colHeight-g.cardHeight)
	top = g.m.SnapDown(top)
	start := g.m.PixelToTime(p.DayStart, top, timegrid.Round)
	g.state.Preview = DropPreview{
		Day:      p.Day,
		DayStart: p.DayStart,
		Top:      top,
		Height:   g.cardHeight,
		Start:    start,
		End:      start.Add(g.duration),
		Valid:    true,
	}
}

func (g *moveGesture) Preview() (DropPreview, bool) {
	if g.done {
		return DropPreview{}, false
	}
	return g.state.Preview, g.state.Preview.Valid
}

// Commit drops the card at the last valid preview. A card released outside
// every column commits nothing.
func (g *moveGesture) Commit() (model.Event, bool) {
	if g.done {
		return model.Event{}, false
	}
	g.done = true
	if !g.state.Preview.Valid {
		return model.Event{}, false
	}
	return g.state.Preview.Event(g.state.Event), true
}

func (g *moveGesture) Cancel() { g.done = true }

type resizeGesture struct {
	m     timegrid.Mapper
	state Resizing
	done  bool
}

func startResize(m timegrid.Mapper, ev model.Event, anchored Edge, day int) *resizeGesture {
	dayStart := timegrid.StartOfDay(ev.Start)
	return &resizeGesture{
		m: m,
		state: Resizing{
			Event:    ev,
			Anchored: anchored,
			Preview: DropPreview{
				Day:      day,
				DayStart: dayStart,
				Top:      m.TimeToPixel(ev.Start),
				Height:   m.HeightForInterval(ev.Interval(), dayStart),
				Start:    ev.Start,
				End:      ev.End,
				Valid:    true,
			},
		},
	}
}

func (g *resizeGesture) State() State { return g.state }

// Update moves the free edge on the event's own day. The edge stops one slot
// short of the anchored edge.
func (g *resizeGesture) Update(p Pointer) {
	if g.done {
		return
	}
	pv := &g.state.Preview
	slot := g.m.SlotDuration()
	t := g.m.PixelToTime(pv.DayStart, p.Y, timegrid.Round)
	if g.state.Anchored == EdgeStart {
		if earliest := pv.Start.Add(slot); t.Before(earliest) {
			t = earliest
		}
		pv.End = t
	} else {
		if latest := pv.End.Add(-slot); t.After(latest) {
			t = latest
		}
		pv.Start = t
	}
	iv := model.Interval{Start: pv.Start, End: pv.End}
	pv.Top = g.m.TimeToPixel(pv.Start)
	pv.Height = g.m.HeightForInterval(iv, pv.DayStart)
}

func (g *resizeGesture) Preview() (DropPreview, bool) {
	if g.done {
		return DropPreview{}, false
	}
	return g.state.Preview, true
}

func (g *resizeGesture) Commit() (model.Event, bool) {
	if g.done {
		return model.Event{}, false
	}
	g.done = true
	return g.state.Preview.Event(g.state.Event), true
}

func (g *resizeGesture) Cancel() { g.done = true }

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
