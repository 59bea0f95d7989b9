// Package ics imports events from and exports events to iCalendar files.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "github.com/daviddao/weekgrid/internal/log"
	"github.com/daviddao/weekgrid/internal/model"
)

const productID = "-//weekgrid//wgv//EN"

var ErrEmpty = errors.New("empty ICS body")

// Result is the outcome of Parse. Skipped counts VEVENTs that cannot be
// placed on the grid: all-day entries, recurring series and entries whose
// times do not parse.
type Result struct {
	Events  []model.Event
	Skipped int
}

// Parse reads a calendar and returns its timed, non-recurring events in
// loc. Boundaries are widened outward to slot edges so every event fits
// the grid. Events without a UID get a fresh one.
func Parse(r io.Reader, slot time.Duration, loc *time.Location) (Result, error) {
	var res Result
	body, err := io.ReadAll(r)
	if err != nil {
		return res, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return res, ErrEmpty
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		ev, ok := parseVEvent(ve, slot, loc)
		if !ok {
			res.Skipped++
			continue
		}
		res.Events = append(res.Events, ev)
	}
	appLog.Info("ics parse completed", "events", len(res.Events), "skipped", res.Skipped)
	return res, nil
}

func parseVEvent(ve *ical.VEvent, slot time.Duration, loc *time.Location) (model.Event, bool) {
	var ev model.Event
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		ev.ID = p.Value
	} else {
		ev.ID = uuid.NewString()
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}

	if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
		appLog.Debug("ics skip recurring event", "uid", ev.ID)
		return ev, false
	}
	if allDay(ve) {
		appLog.Debug("ics skip all-day event", "uid", ev.ID)
		return ev, false
	}

	start, err := ve.GetStartAt()
	if err != nil {
		appLog.Error("ics bad DTSTART", err, "uid", ev.ID)
		return ev, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// DTEND is optional; a timed event without it lasts one slot.
		end = start.Add(slot)
	}
	ev.Start = floorSlot(start.In(loc), slot)
	ev.End = ceilSlot(end.In(loc), slot)
	if !ev.End.After(ev.Start) {
		ev.End = ev.Start.Add(slot)
	}
	return ev, true
}

// allDay reports a DATE-valued DTSTART, either by VALUE=DATE or by a value
// without a time part.
func allDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func floorSlot(t time.Time, slot time.Duration) time.Time {
	if slot <= 0 {
		return t
	}
	mid := model.Midnight(t)
	off := t.Sub(mid)
	return mid.Add(off - off%slot)
}

func ceilSlot(t time.Time, slot time.Duration) time.Time {
	f := floorSlot(t, slot)
	if f.Equal(t) {
		return t
	}
	return f.Add(slot)
}

// Write serializes events as a VCALENDAR. Times are written in UTC.
func Write(w io.Writer, events []model.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}
