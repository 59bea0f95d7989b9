package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/daviddao/weekgrid/internal/config"
	"github.com/daviddao/weekgrid/internal/datasource"
	"github.com/daviddao/weekgrid/internal/interact"
	"github.com/daviddao/weekgrid/internal/layout"
	appLog "github.com/daviddao/weekgrid/internal/log"
	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/snapshot"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

const (
	storeTimeout = 5 * time.Second
	wheelStep    = 3

	zonePrev  = "prev"
	zoneToday = "today"
	zoneNext  = "next"
)

// eventStore is everything the TUI needs from the event store.
type eventStore interface {
	snapshot.Source
	interact.Store
	Delete(ctx context.Context, id string) error
}

// --- Messages ---

type dbChangedMsg struct{}

type snapshotReadyMsg struct {
	snap *snapshot.WeekSnapshot
	err  error
}

type commitResultMsg struct {
	commit interact.Commit
	err    error
}

type deleteResultMsg struct {
	id  string
	err error
}

type tickMsg struct{}

// commitQueue collects the commits the controller dispatches while Update
// is handling a pointer event. Update drains it into tea.Cmds so the store
// write runs off the UI goroutine.
type commitQueue struct {
	mu      sync.Mutex
	pending []interact.Commit
}

func (q *commitQueue) push(c interact.Commit) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, c)
}

func (q *commitQueue) drain() []interact.Commit {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// pickup is a press on a card body that becomes a move on the first motion.
// A press and release without motion only selects the card. scrollTop is the
// viewport offset p was sampled at.
type pickup struct {
	ev        model.Event
	p         interact.Pointer
	scrollTop int
	x, y      int
	moved     bool
}

// --- Model ---

type uiModel struct {
	store   eventStore
	watcher *datasource.Watcher
	cfg     *config.Config
	mapper  timegrid.Mapper
	policy  layout.Policy
	ctrl    *interact.Controller
	sink    *interact.ReleaseSink
	queue   *commitQueue
	zones   *zone.Manager
	snap    *snapshot.WeekSnapshot
	dbPath  string
	now     func() time.Time

	weekStart time.Time
	width     int
	height    int
	scrollTop int

	pickup   *pickup
	selected string
	lastErr  error

	rename   textinput.Model
	renaming bool

	help     help.Model
	showHelp bool

	lastRefresh time.Time
}

func newModel(st eventStore, w *datasource.Watcher, cfg *config.Config, snap *snapshot.WeekSnapshot, dbPath string) uiModel {
	q := &commitQueue{}
	sink := interact.NewReleaseSink()
	mapper := cfg.Mapper()
	ctrl := interact.New(mapper, st,
		interact.WithSink(sink),
		interact.WithDispatcher(q.push),
	)

	ti := textinput.New()
	ti.Prompt = "title: "
	ti.CharLimit = 120

	scroll := int(mapper.TimeToPixel(snap.WeekStart.Add(time.Duration(cfg.DayStartHour) * time.Hour)))
	ctrl.Scroll(float64(scroll))

	return uiModel{
		store:       st,
		watcher:     w,
		cfg:         cfg,
		mapper:      mapper,
		policy:      cfg.Policy(),
		ctrl:        ctrl,
		sink:        sink,
		queue:       q,
		zones:       zone.New(),
		snap:        snap,
		dbPath:      dbPath,
		now:         time.Now,
		weekStart:   snap.WeekStart,
		scrollTop:   scroll,
		rename:      ti,
		help:        help.New(),
		lastRefresh: time.Now(),
	}
}

func (m uiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		return m.updateKey(msg)

	case tea.MouseMsg:
		if m.renaming {
			return m, nil
		}
		return m.updateMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m = m.setScroll(m.scrollTop)

	case dbChangedMsg:
		return m, m.refreshSnapshot()

	case snapshotReadyMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			appLog.Error("snapshot build failed", msg.err, "week", m.weekStart.Format(time.DateOnly))
			return m, nil
		}
		// A reply for a week we have since left is stale.
		if msg.snap != nil && msg.snap.WeekStart.Equal(m.weekStart) {
			m.snap = msg.snap
			m.lastRefresh = m.now()
		}

	case commitResultMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("save %q: %w", msg.commit.Event.Title, msg.err)
			appLog.Error("commit failed", msg.err, "id", msg.commit.Event.ID, "gesture", msg.commit.Gesture)
		} else {
			m.lastErr = nil
			appLog.Debug("commit stored", "id", msg.commit.Event.ID, "gesture", msg.commit.Gesture, "created", msg.commit.Created)
		}
		return m, m.refreshSnapshot()

	case deleteResultMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("delete: %w", msg.err)
			appLog.Error("delete failed", msg.err, "id", msg.id)
		}
		return m, m.refreshSnapshot()

	case tickMsg:
		return m, tickEvery()
	}

	return m, nil
}

func (m uiModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.ctrl.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.PrevWeek):
		return m.shiftWeek(-1)

	case key.Matches(msg, keys.NextWeek):
		return m.shiftWeek(1)

	case key.Matches(msg, keys.Today):
		return m.gotoWeek(snapshot.WeekStart(m.now(), m.cfg.FirstWeekday()))

	case key.Matches(msg, keys.Refresh):
		return m, m.refreshSnapshot()

	case key.Matches(msg, keys.Up):
		m = m.setScroll(m.scrollTop - 1)

	case key.Matches(msg, keys.Down):
		m = m.setScroll(m.scrollTop + 1)

	case key.Matches(msg, keys.PageUp):
		m = m.setScroll(m.scrollTop - m.geom().height)

	case key.Matches(msg, keys.PageDown):
		m = m.setScroll(m.scrollTop + m.geom().height)

	case key.Matches(msg, keys.Rename):
		ev, ok := m.selectedEvent()
		if !ok {
			return m, nil
		}
		m.renaming = true
		m.rename.SetValue(ev.Title)
		m.rename.CursorEnd()
		return m, m.rename.Focus()

	case key.Matches(msg, keys.Delete):
		ev, ok := m.selectedEvent()
		if !ok {
			return m, nil
		}
		m.snap = m.snap.Without(ev.ID)
		m.selected = ""
		return m, m.deleteEvent(ev.ID)

	case key.Matches(msg, keys.Esc):
		m.selected = ""

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m uiModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.renaming = false
		m.rename.Blur()
		return m, nil
	case tea.KeyEnter:
		m.renaming = false
		m.rename.Blur()
		title := strings.TrimSpace(m.rename.Value())
		ev, ok := m.selectedEvent()
		if !ok || title == "" || title == ev.Title {
			return m, nil
		}
		ev.Title = title
		m.snap = m.snap.With(ev)
		return m, m.saveEvent(ev)
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

func (m uiModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.setScroll(m.scrollTop - wheelStep), nil
		case tea.MouseButtonWheelDown:
			return m.setScroll(m.scrollTop + wheelStep), nil
		case tea.MouseButtonLeft:
			return m.press(msg)
		}
	case tea.MouseActionMotion:
		return m.motion(msg), nil
	case tea.MouseActionRelease:
		return m.release(msg)
	}
	return m, nil
}

func (m uiModel) press(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.zones.Get(zonePrev).InBounds(msg):
		return m.shiftWeek(-1)
	case m.zones.Get(zoneToday).InBounds(msg):
		return m.gotoWeek(snapshot.WeekStart(m.now(), m.cfg.FirstWeekday()))
	case m.zones.Get(zoneNext).InBounds(msg):
		return m.shiftWeek(1)
	}
	if m.ctrl.Kind() != interact.KindIdle {
		return m, nil
	}

	p := m.pointerAt(msg.X, msg.Y)
	if hit, ok := m.cardAt(msg.X, msg.Y); ok {
		ev := hit.event()
		m.selected = ev.ID
		switch hit.handle {
		case handleTop:
			m.ctrl.BeginResize(ev, interact.EdgeEnd, p)
		case handleBottom:
			m.ctrl.BeginResize(ev, interact.EdgeStart, p)
		default:
			if hit.rect.startsHere {
				m.pickup = &pickup{ev: ev, p: p, scrollTop: m.scrollTop, x: msg.X, y: msg.Y}
			}
		}
		return m, nil
	}
	if p.InColumn {
		m.selected = ""
		m.ctrl.BeginCreate(p)
	}
	return m, nil
}

func (m uiModel) motion(msg tea.MouseMsg) uiModel {
	p := m.pointerAt(msg.X, msg.Y)
	if pk := m.pickup; pk != nil && !pk.moved {
		if msg.X == pk.x && msg.Y == pk.y {
			return m
		}
		pk.moved = true
		// The controller adds the current offset; keep the grip on the row
		// that was pressed even if the grid scrolled since.
		grab := pk.p
		grab.Y -= float64(m.scrollTop - pk.scrollTop)
		m.ctrl.BeginMove(pk.ev, grab)
	}
	m.ctrl.PointerMove(p)
	return m
}

// release forwards every mouse release to the global sink, wherever it
// happens, then turns any resulting commits into store writes.
func (m uiModel) release(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.pickup = nil
	m.sink.Release(m.pointerAt(msg.X, msg.Y))

	var cmds []tea.Cmd
	for _, cm := range m.queue.drain() {
		m.snap = m.snap.With(cm.Event)
		m.selected = cm.Event.ID
		appLog.Debug("gesture committed", "gesture", cm.Gesture, "id", cm.Event.ID,
			"start", cm.Event.Start.Format(time.DateTime), "end", cm.Event.End.Format(time.DateTime))
		cmds = append(cmds, runCommit(cm))
	}
	return m, tea.Batch(cmds...)
}

func (m uiModel) setScroll(top int) uiModel {
	m.scrollTop = m.clampScroll(top)
	m.ctrl.Scroll(float64(m.scrollTop))
	return m
}

func (m uiModel) shiftWeek(n int) (tea.Model, tea.Cmd) {
	return m.gotoWeek(m.weekStart.AddDate(0, 0, 7*n))
}

// gotoWeek switches the displayed week. It is refused mid-gesture.
func (m uiModel) gotoWeek(week time.Time) (tea.Model, tea.Cmd) {
	if m.ctrl.Kind() != interact.KindIdle || week.Equal(m.weekStart) {
		return m, nil
	}
	m.weekStart = week
	m.pickup = nil
	return m, m.refreshSnapshot()
}

func (m uiModel) selectedEvent() (model.Event, bool) {
	if m.selected == "" || m.snap == nil {
		return model.Event{}, false
	}
	return m.snap.Event(m.selected)
}

func (m uiModel) refreshSnapshot() tea.Cmd {
	st, week := m.store, m.weekStart
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		snap, err := snapshot.Build(ctx, st, week)
		return snapshotReadyMsg{snap: snap, err: err}
	}
}

func runCommit(cm interact.Commit) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return commitResultMsg{commit: cm, err: cm.Run(ctx)}
	}
}

func (m uiModel) saveEvent(ev model.Event) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		_, err := st.Update(ctx, ev)
		return commitResultMsg{commit: interact.Commit{Event: ev, Gesture: interact.KindIdle}, err: err}
	}
}

func (m uiModel) deleteEvent(id string) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return deleteResultMsg{id: id, err: st.Delete(ctx, id)}
	}
}
