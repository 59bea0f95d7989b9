package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/daviddao/weekgrid/internal/interact"
	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/snapshot"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#313244")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	todayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#89B4FA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

// cellStyle is the paint of one grid cell.
type cellStyle int

const (
	cellBlank cellStyle = iota
	cellRule
	cellSep
	cellNow
	cellCard
	cellSelected
	cellDimmed
	cellGhost
)

var cellStyles = map[cellStyle]lipgloss.Style{
	cellBlank:    lipgloss.NewStyle(),
	cellRule:     lipgloss.NewStyle().Foreground(lipgloss.Color("#313244")),
	cellSep:      lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A")),
	cellNow:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	cellCard:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E2E")).Background(lipgloss.Color("#89B4FA")),
	cellSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E2E")).Background(lipgloss.Color("#FAB387")).Bold(true),
	cellDimmed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Background(lipgloss.Color("#313244")),
	cellGhost:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E2E")).Background(lipgloss.Color("#A6E3A1")),
}

// canvas is a grid of single-width cells painted back to front.
type canvas struct {
	w, h  int
	runes [][]rune
	paint [][]cellStyle
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, runes: make([][]rune, h), paint: make([][]cellStyle, h)}
	for y := range c.runes {
		c.runes[y] = []rune(strings.Repeat(" ", w))
		c.paint[y] = make([]cellStyle, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, st cellStyle) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.runes[y][x] = r
	c.paint[y][x] = st
}

func (c *canvas) fill(x, y, w, h int, st cellStyle) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			c.set(xx, yy, ' ', st)
		}
	}
}

// text writes s from x, clipped to maxW cells. Runes wider than one cell
// are replaced so columns stay aligned.
func (c *canvas) text(x, y, maxW int, s string, st cellStyle) {
	i := 0
	for _, r := range s {
		if i >= maxW {
			return
		}
		if ansi.StringWidth(string(r)) != 1 {
			r = '?'
		}
		c.set(x+i, y, r, st)
		i++
	}
}

// String renders each row, grouping runs of equal paint into one style call.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.w; x++ {
			if x < c.w && c.paint[y][x] == c.paint[y][start] {
				continue
			}
			b.WriteString(cellStyles[c.paint[y][start]].Render(string(c.runes[y][start:x])))
			start = x
		}
	}
	return b.String()
}

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	lines := []string{
		m.renderTitleBar(),
		m.renderToolbar(),
		m.renderDayHeader(),
		m.renderGrid(),
	}
	if m.showHelp {
		lines = append(lines, m.help.View(keys))
	} else {
		lines = append(lines, m.renderStatusBar())
	}

	// Truncate each line to terminal width so content doesn't wrap
	// on resize.
	return m.zones.Scan(truncateLines(strings.Join(lines, "\n"), m.width))
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("weekgrid")
	stats := dimStyle.Render(fmt.Sprintf("%d this week | %d total", m.snap.WeekEvents, m.snap.TotalEvents))
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-1))
	return title + gap + stats
}

func (m uiModel) renderToolbar() string {
	prev := m.zones.Mark(zonePrev, buttonStyle.Render("‹ prev"))
	today := m.zones.Mark(zoneToday, buttonStyle.Render("today"))
	next := m.zones.Mark(zoneNext, buttonStyle.Render("next ›"))
	return prev + " " + today + " " + next + "  " + headerStyle.Render(weekLabel(m.weekStart))
}

// weekLabel formats a week as "Mar 10 - Mar 16, 2025".
func weekLabel(start time.Time) string {
	end := start.AddDate(0, 0, snapshot.DaysPerWeek-1)
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

func (m uiModel) renderDayHeader() string {
	g := m.geom()
	today := timegrid.StartOfDay(m.now())
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", g.gutter))
	for i, d := range m.snap.Days {
		cell := fitCell(d.Date.Format("Mon 2"), g.inner())
		if d.Date.Equal(today) {
			cell = todayStyle.Render(cell)
		} else {
			cell = headerStyle.Render(cell)
		}
		b.WriteString(cell)
		if i < snapshot.DaysPerWeek-1 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func (m uiModel) renderGrid() string {
	g := m.geom()
	c := newCanvas(g.gutter+snapshot.DaysPerWeek*g.colWidth, g.height)
	dayHeight := int(math.Ceil(m.mapper.DayHeight()))
	ref := m.snap.WeekStart

	for row := 0; row < g.height; row++ {
		y := m.scrollTop + row
		if y >= dayHeight {
			break
		}
		t := m.mapper.PixelToTime(ref, float64(y), timegrid.Floor)
		hourLine := t.Minute() == 0 && int(math.Round(m.mapper.TimeToPixel(t))) == y
		if hourLine {
			c.text(0, row, g.gutter, t.Format("15:04"), cellRule)
		}
		for d := 0; d < snapshot.DaysPerWeek; d++ {
			x := g.colX(d)
			if hourLine {
				for i := 0; i < g.inner(); i++ {
					c.set(x+i, row, '┈', cellRule)
				}
			}
			c.set(x+g.inner(), row, '│', cellSep)
		}
	}

	m.paintNow(c, g)
	for d := 0; d < snapshot.DaysPerWeek; d++ {
		for _, r := range m.cards(d) {
			m.paintCard(c, g, r)
		}
	}
	m.paintPreview(c, g)
	return c.String()
}

// paintNow draws the current-time line across today's column.
func (m uiModel) paintNow(c *canvas, g gridGeom) {
	now := m.now()
	day := m.snap.DayIndex(now)
	if day < 0 {
		return
	}
	row := int(m.mapper.TimeToPixel(now)) - m.scrollTop
	for i := 0; i < g.inner(); i++ {
		c.set(g.colX(day)+i, row, '─', cellNow)
	}
}

func (m uiModel) paintCard(c *canvas, g gridGeom, r cardRect) {
	active := m.ctrl.ActiveID()
	st := cellCard
	switch {
	case m.ctrl.Resizing() && r.ev.ID == active:
		return
	case m.ctrl.Resizing(), m.ctrl.Kind() == interact.KindMoving && r.ev.ID == active:
		st = cellDimmed
	case r.ev.ID == m.selected:
		st = cellSelected
	}
	m.paintBox(c, g.colX(r.day)+r.left, r.top, r.width, r.height, r.ev.Event, st)
}

// paintPreview draws the live geometry of the active gesture: a ghost for
// create and move, the resized card itself for resize.
func (m uiModel) paintPreview(c *canvas, g gridGeom) {
	p, ok := m.ctrl.Preview()
	if !ok || !p.Valid || p.Day < 0 || p.Day >= snapshot.DaysPerWeek {
		return
	}
	top := int(math.Round(p.Top))
	height := max(1, int(math.Round(p.Height)))
	x, w := g.colX(p.Day), g.inner()

	switch s := m.ctrl.State().(type) {
	case interact.Creating:
		m.paintBox(c, x, top, w, height, model.Event{Title: interact.DefaultTitle, Start: p.Start, End: p.End}, cellGhost)
	case interact.Moving:
		m.paintBox(c, x, top, w, height, p.Event(s.Event), cellGhost)
	case interact.Resizing:
		m.paintBox(c, x, top, w, height, p.Event(s.Event), cellSelected)
	}
}

// paintBox fills a card at column row top and writes its title and time
// range on the first two visible rows.
func (m uiModel) paintBox(c *canvas, x, top, w, h int, ev model.Event, st cellStyle) {
	row := top - m.scrollTop
	c.fill(x, row, w, h, st)
	lines := []string{ev.Title, ev.Start.Format("15:04") + "-" + ev.End.Format("15:04")}
	for i, s := range lines {
		if i >= h {
			break
		}
		c.text(x, row+i, w, s, st)
	}
}

func (m uiModel) renderStatusBar() string {
	right := fmt.Sprintf("refreshed %s ", humanize.Time(m.lastRefresh))
	var left string
	switch {
	case m.renaming:
		left = " " + m.rename.View()
	case m.lastErr != nil:
		left = " " + errStyle.Render("error: "+m.lastErr.Error())
	default:
		left = " " + m.gestureHint()
	}
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return statusBarStyle.Render(left + gap + right)
}

// gestureHint describes the current interaction state.
func (m uiModel) gestureHint() string {
	p, _ := m.ctrl.Preview()
	span := p.Start.Format("Mon 15:04") + "-" + p.End.Format("15:04")
	switch s := m.ctrl.State().(type) {
	case interact.Creating:
		return "new event " + span
	case interact.Moving:
		if !p.Valid {
			return fmt.Sprintf("moving %q: no drop target", s.Event.Title)
		}
		return fmt.Sprintf("moving %q to %s", s.Event.Title, span)
	case interact.Resizing:
		return fmt.Sprintf("resizing %q %s", s.Event.Title, span)
	}
	if ev, ok := m.selectedEvent(); ok {
		return fmt.Sprintf("%q %s | e: rename | x: delete | esc: deselect", ev.Title,
			ev.Start.Format("Mon 15:04")+"-"+ev.End.Format("15:04"))
	}
	return "drag empty: new | drag card: move | drag edge: resize | ?: keys"
}

// --- Helpers ---

// fitCell truncates or pads s to exactly w terminal cells.
func fitCell(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "")
	return s + strings.Repeat(" ", max(0, w-ansi.StringWidth(s)))
}

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
