package main

import (
	"math"
	"sort"
	"time"

	"github.com/daviddao/weekgrid/internal/interact"
	"github.com/daviddao/weekgrid/internal/layout"
	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/snapshot"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// Screen layout, top to bottom: title, toolbar, day header, grid viewport,
// status bar.
const (
	gridTop     = 3
	chromeRows  = gridTop + 1
	gutterWidth = 6
	minColWidth = 4
)

// gridGeom is the on-screen placement of the week grid.
type gridGeom struct {
	top      int
	height   int
	gutter   int
	colWidth int
}

func (m uiModel) geom() gridGeom {
	h := m.height - chromeRows
	if h < 1 {
		h = 1
	}
	cw := (m.width - gutterWidth) / snapshot.DaysPerWeek
	if cw < minColWidth {
		cw = minColWidth
	}
	return gridGeom{top: gridTop, height: h, gutter: gutterWidth, colWidth: cw}
}

// dayAt returns the column under screen x, or -1.
func (g gridGeom) dayAt(x int) int {
	if x < g.gutter {
		return -1
	}
	d := (x - g.gutter) / g.colWidth
	if d >= snapshot.DaysPerWeek {
		return -1
	}
	return d
}

func (g gridGeom) colX(day int) int { return g.gutter + day*g.colWidth }

// inner is the usable width of a column; its last cell is the separator.
func (g gridGeom) inner() int { return g.colWidth - 1 }

func (g gridGeom) inViewport(y int) bool {
	return y >= g.top && y < g.top+g.height
}

// maxScroll is the largest scroll offset that keeps the viewport full.
func (m uiModel) maxScroll() int {
	over := int(math.Ceil(m.mapper.DayHeight())) - m.geom().height
	if over < 0 {
		return 0
	}
	return over
}

func (m uiModel) clampScroll(top int) int {
	if top < 0 {
		return 0
	}
	if hi := m.maxScroll(); top > hi {
		return hi
	}
	return top
}

// handle identifies which part of a card a cell belongs to.
type handle int

const (
	handleBody handle = iota
	handleTop
	handleBottom
)

// cardRect is one rendered card in column coordinates (rows from midnight)
// and column-relative cells.
type cardRect struct {
	ev     layout.DateEvent
	day    int
	left   int
	width  int
	top    int
	height int

	// whole is false for the parts of an event that crosses midnight. Only
	// whole cards have resize handles, and only the part on the start day
	// can be moved.
	whole      bool
	startsHere bool
}

// handleAt returns the card part at column row y. A single-row card is all
// bottom handle.
func (c cardRect) handleAt(y int) handle {
	if !c.whole {
		return handleBody
	}
	switch {
	case y == c.top+c.height-1:
		return handleBottom
	case y == c.top:
		return handleTop
	}
	return handleBody
}

// cards returns the boxes of day's events in paint order: lane 0 first so
// later lanes draw over earlier ones.
func (m uiModel) cards(day int) []cardRect {
	if m.snap == nil || day < 0 || day >= snapshot.DaysPerWeek {
		return nil
	}
	ds := m.snap.Days[day]
	from, to := timegrid.StartOfDay(ds.Date), timegrid.EndOfDay(ds.Date)
	inner := m.geom().inner()

	out := make([]cardRect, 0, len(ds.Events))
	for _, d := range ds.Events {
		iv, ok := d.Interval().Clip(from, to)
		if !ok {
			continue
		}
		top := 0
		if iv.Start.After(from) {
			top = int(math.Round(m.mapper.TimeToPixel(iv.Start)))
		}
		height := int(math.Round(m.mapper.HeightForInterval(d.Interval(), ds.Date)))
		if height < 1 {
			height = 1
		}
		left, width := m.policy.Box(d, inner)
		out = append(out, cardRect{
			ev:         d,
			day:        day,
			left:       left,
			width:      width,
			top:        top,
			height:     height,
			whole:      !d.Start.Before(from) && !d.End.After(to),
			startsHere: !d.Start.Before(from),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ev.LaneIndex < out[j].ev.LaneIndex })
	return out
}

// cardHit is a card found under the pointer.
type cardHit struct {
	rect   cardRect
	handle handle
}

func (h cardHit) event() model.Event { return h.rect.ev.Event }

// cardAt hit-tests screen cell (x, y) against the visible cards. Cards are
// not hit-tested while a resize is in progress.
func (m uiModel) cardAt(x, y int) (cardHit, bool) {
	if m.ctrl != nil && m.ctrl.Resizing() {
		return cardHit{}, false
	}
	g := m.geom()
	day := g.dayAt(x)
	if day < 0 || !g.inViewport(y) {
		return cardHit{}, false
	}
	cx := x - g.colX(day)
	cy := y - g.top + m.scrollTop
	rects := m.cards(day)
	for i := len(rects) - 1; i >= 0; i-- {
		r := rects[i]
		if cx < r.left || cx >= r.left+r.width || cy < r.top || cy >= r.top+r.height {
			continue
		}
		return cardHit{rect: r, handle: r.handleAt(cy)}, true
	}
	return cardHit{}, false
}

// dayStart returns local midnight of column day.
func (m uiModel) dayStart(day int) time.Time {
	if m.snap == nil || day < 0 || day >= snapshot.DaysPerWeek {
		return time.Time{}
	}
	return m.snap.Days[day].Date
}

// pointerAt converts a terminal cell to a controller pointer. One row is one
// mapper unit, so slot_height is the number of rows per slot. Y is relative
// to the viewport and sampled at the middle of the row, except while a start
// edge is being dragged, where the top of the row is used so the edge lands
// on the row under the mouse.
func (m uiModel) pointerAt(x, y int) interact.Pointer {
	g := m.geom()
	row := y - g.top
	day := g.dayAt(x)
	sample := float64(row) + 0.5
	if s, ok := m.ctrl.State().(interact.Resizing); ok && s.Anchored == interact.EdgeEnd {
		sample = float64(row)
	}
	return interact.Pointer{
		Day:          day,
		DayStart:     m.dayStart(day),
		Y:            sample,
		ColumnHeight: m.mapper.DayHeight(),
		InColumn:     day >= 0 && g.inViewport(y),
	}
}
