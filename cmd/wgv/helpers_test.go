package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daviddao/weekgrid/internal/config"
	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/snapshot"
	"github.com/daviddao/weekgrid/internal/store"
)

// Test terminal: 7 columns of 12 cells after the 6-cell gutter, and 36 grid
// rows. With the default config one row is one 15-minute slot and the
// viewport opens scrolled to 08:00.
const (
	testWidth  = gutterWidth + 7*12
	testHeight = 40
	cmdTimeout = 2 * time.Second
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

// at returns monday + day days at h:m.
func at(day, h, m int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "weekgrid.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// newTestModel builds a sized model over a temporary store holding events.
func newTestModel(t *testing.T, events ...model.Event) (uiModel, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	m := newTestModelWith(t, st, st, events...)
	return m, st
}

// newTestModelWith lets a test wrap the store the model writes through.
func newTestModelWith(t *testing.T, st *store.Store, es eventStore, events ...model.Event) uiModel {
	t.Helper()
	ctx := context.Background()
	for _, ev := range events {
		if _, err := st.Update(ctx, ev); err != nil {
			t.Fatalf("Update %s: %v", ev.ID, err)
		}
	}
	snap, err := snapshot.Build(ctx, st, monday)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := newModel(es, nil, config.DefaultConfig(), snap, st.Path())
	m.now = func() time.Time { return at(2, 10, 0) }
	t.Cleanup(m.ctrl.Close)
	t.Cleanup(m.zones.Close)
	return drive(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
}

// drive feeds msg to m, runs the returned commands and feeds their messages
// back until nothing is left. Commands that outlast cmdTimeout, such as
// cursor blinks, are dropped.
func drive(t *testing.T, m uiModel, msg tea.Msg) uiModel {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 50 {
			t.Fatal("message loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if batch, ok := next.(tea.BatchMsg); ok {
			for _, cmd := range batch {
				queue = append(queue, runCmd(cmd)...)
			}
			continue
		}
		updated, cmd := m.Update(next)
		m = updated.(uiModel)
		queue = append(queue, runCmd(cmd)...)
	}
	return m
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(cmdTimeout):
		return nil
	}
}

// cellX returns a screen x inside column day, offset cells from its left.
func cellX(day, offset int) int {
	return gutterWidth + day*12 + offset
}

// rowY returns the screen row showing h:m on m's current scroll.
func rowY(m uiModel, h, mins int) int {
	return gridTop + h*4 + mins/15 - m.scrollTop
}

func mouseAt(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

// drag performs press, one motion per step and a release at the last point.
func drag(t *testing.T, m uiModel, x, y int, steps ...[2]int) uiModel {
	t.Helper()
	m = drive(t, m, mouseAt(tea.MouseActionPress, x, y))
	for _, s := range steps {
		x, y = s[0], s[1]
		m = drive(t, m, mouseAt(tea.MouseActionMotion, x, y))
	}
	return drive(t, m, mouseAt(tea.MouseActionRelease, x, y))
}

func getEvent(t *testing.T, st *store.Store, id string) model.Event {
	t.Helper()
	ev, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	return ev
}

func assertSpan(t *testing.T, ev model.Event, start, end time.Time) {
	t.Helper()
	if !ev.Start.Equal(start) || !ev.End.Equal(end) {
		t.Errorf("%s span = %s..%s, want %s..%s", ev.ID,
			ev.Start.Format(time.DateTime), ev.End.Format(time.DateTime),
			start.Format(time.DateTime), end.Format(time.DateTime))
	}
}
