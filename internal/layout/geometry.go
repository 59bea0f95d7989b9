package layout

import "math"

const (
	DefaultWidth          = 0.93
	DefaultTrailingFactor = 1.7
)

// Policy turns lane assignments into horizontal fractions of a day column.
// Width is the share reserved for events; the rest is a click gutter.
type Policy struct {
	Width          float64
	TrailingFactor float64
}

// DefaultPolicy returns the standard 93% / 1.7 policy.
func DefaultPolicy() Policy {
	return Policy{Width: DefaultWidth, TrailingFactor: DefaultTrailingFactor}
}

func (p Policy) normalized() Policy {
	if p.Width <= 0 || p.Width > 1 {
		p.Width = DefaultWidth
	}
	if p.TrailingFactor <= 0 {
		p.TrailingFactor = DefaultTrailingFactor
	}
	return p
}

// Left returns the left edge of d as a fraction of the column.
func (p Policy) Left(d DateEvent) float64 {
	p = p.normalized()
	if d.LaneIndex == 0 {
		return 0
	}
	return p.Width / float64(d.LaneCount+1) * float64(d.LaneIndex)
}

// WidthOf returns the width of d as a fraction of the column. The trailing
// lane is narrow; earlier lanes are stretched by TrailingFactor so their
// titles stay readable under the next lane.
func (p Policy) WidthOf(d DateEvent) float64 {
	p = p.normalized()
	if d.LaneCount == 0 {
		return p.Width
	}
	share := p.Width / float64(d.LaneCount+1)
	if d.LaneIndex == d.LaneCount {
		return share
	}
	return share * p.TrailingFactor
}

// Box converts d's fractions to whole cells of a column that is columnWidth
// cells wide. Every box is at least one cell wide and stays inside the column.
func (p Policy) Box(d DateEvent, columnWidth int) (left, width int) {
	if columnWidth <= 0 {
		return 0, 0
	}
	left = int(math.Floor(p.Left(d) * float64(columnWidth)))
	width = int(math.Round(p.WidthOf(d) * float64(columnWidth)))
	if left > columnWidth-1 {
		left = columnWidth - 1
	}
	if width < 1 {
		width = 1
	}
	if left+width > columnWidth {
		width = columnWidth - left
	}
	return left, width
}
