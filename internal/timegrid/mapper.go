// Package timegrid converts between vertical offsets inside a day column and
// quantized wall-clock time.
//
// Offsets are abstract units ("pixels"). A column is SlotHeight units tall per
// slot of SlotMinutes, so a full day is (1440/SlotMinutes)*SlotHeight units.
package timegrid

import (
	"math"
	"time"

	"github.com/daviddao/weekgrid/internal/model"
)

const (
	DefaultSlotMinutes = 15
	DefaultSlotHeight  = 17.0
	MinutesPerDay      = 24 * 60
)

// Rounding selects how a fractional slot count is resolved.
type Rounding int

const (
	// Floor is used for the first boundary of a new event so it starts at or
	// before the press point.
	Floor Rounding = iota
	// Round is used while a boundary is being dragged.
	Round
)

func (r Rounding) String() string {
	switch r {
	case Floor:
		return "floor"
	case Round:
		return "round"
	}
	return "?"
}

// Mapper is a pure, value-type coordinate converter.
type Mapper struct {
	SlotMinutes int
	SlotHeight  float64
}

// New returns a Mapper, substituting defaults for non-positive inputs.
func New(slotMinutes int, slotHeight float64) Mapper {
	if slotMinutes <= 0 || MinutesPerDay%slotMinutes != 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if slotHeight <= 0 {
		slotHeight = DefaultSlotHeight
	}
	return Mapper{SlotMinutes: slotMinutes, SlotHeight: slotHeight}
}

// SlotDuration returns one slot as a time.Duration.
func (m Mapper) SlotDuration() time.Duration {
	return time.Duration(m.SlotMinutes) * time.Minute
}

// SlotsPerDay returns the number of slots in a 24h column.
func (m Mapper) SlotsPerDay() int {
	return MinutesPerDay / m.SlotMinutes
}

// DayHeight returns the height of a full day column.
func (m Mapper) DayHeight() float64 {
	return float64(m.SlotsPerDay()) * m.SlotHeight
}

// PixelToTime maps offset y inside the column of dayStart to a slot boundary.
// Offsets outside the column clamp to the day's first or last boundary.
func (m Mapper) PixelToTime(dayStart time.Time, y float64, r Rounding) time.Time {
	slots := y / m.SlotHeight
	switch r {
	case Round:
		slots = math.Round(slots)
	default:
		slots = math.Floor(slots)
	}
	n := int(slots)
	if n < 0 {
		n = 0
	}
	if last := m.SlotsPerDay(); n > last {
		n = last
	}
	return dayStart.Add(time.Duration(n*m.SlotMinutes) * time.Minute)
}

// TimeToPixel maps t to the top of its enclosing slot.
func (m Mapper) TimeToPixel(t time.Time) float64 {
	slot := model.MinutesSinceMidnight(t) / m.SlotMinutes
	return float64(slot) * m.SlotHeight
}

// HeightForInterval returns the rendered height of iv on day: the clipped
// span rounded up to whole slots, or 0 when iv misses the day.
func (m Mapper) HeightForInterval(iv model.Interval, day time.Time) float64 {
	clipped, ok := iv.Clip(StartOfDay(day), EndOfDay(day))
	if !ok {
		return 0
	}
	mins := clipped.End.Sub(clipped.Start).Minutes()
	slots := math.Ceil(mins / float64(m.SlotMinutes))
	return slots * m.SlotHeight
}

// SnapDown floors y to the nearest slot boundary.
func (m Mapper) SnapDown(y float64) float64 {
	return math.Floor(y/m.SlotHeight) * m.SlotHeight
}

// StartOfDay returns local midnight of day.
func StartOfDay(day time.Time) time.Time {
	return model.Midnight(day)
}

// EndOfDay returns the following midnight, the exclusive end of day.
func EndOfDay(day time.Time) time.Time {
	return StartOfDay(day).AddDate(0, 0, 1)
}
