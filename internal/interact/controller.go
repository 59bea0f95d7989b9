package interact

import (
	"context"

	"github.com/google/uuid"

	"github.com/daviddao/weekgrid/internal/model"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

// DefaultTitle is given to events created by dragging.
const DefaultTitle = "New event"

// Store is the event store as seen by the controller. Update creates or
// replaces the event with ev.ID.
type Store interface {
	Update(ctx context.Context, ev model.Event) (model.Event, error)
}

// Commit is one store write produced by a finished gesture.
type Commit struct {
	Event   model.Event
	Gesture Kind
	Created bool

	store Store
}

// Run performs the write.
func (c Commit) Run(ctx context.Context) error {
	_, err := c.store.Update(ctx, c.Event)
	return err
}

// Dispatcher schedules a Commit. It must not block the caller.
type Dispatcher func(Commit)

// Option configures a Controller.
type Option func(*Controller)

// WithSink attaches the controller's release handler to s instead of a
// private ReleaseSink.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithDispatcher replaces the default goroutine dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithErrorHandler is called by the default dispatcher when a write fails.
// It runs on the dispatcher's goroutine.
func WithErrorHandler(fn func(Commit, error)) Option {
	return func(c *Controller) { c.onErr = fn }
}

// WithIDGenerator overrides uuid-based ids for created events.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Controller owns the gesture state of one grid.
type Controller struct {
	m     timegrid.Mapper
	store Store

	sink     Sink
	detach   func()
	dispatch Dispatcher
	onErr    func(Commit, error)
	newID    func() string

	active    Gesture
	scrollTop float64
	history   PointerHistory
	closed    bool
}

// New returns an idle controller and attaches it to its release sink.
func New(m timegrid.Mapper, store Store, opts ...Option) *Controller {
	c := &Controller{
		m:     m,
		store: store,
		newID: func() string { return uuid.NewString() },
	}
	c.dispatch = c.goDispatch
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = NewReleaseSink()
	}
	c.detach = c.sink.Attach(func(p Pointer) { c.Release(p) })
	return c
}

func (c *Controller) goDispatch(cm Commit) {
	onErr := c.onErr
	go func() {
		if err := cm.Run(context.Background()); err != nil && onErr != nil {
			onErr(cm, err)
		}
	}()
}

// State returns a copy of the current tagged state.
func (c *Controller) State() State {
	if c.active == nil {
		return Idle{}
	}
	return c.active.State()
}

// Kind is shorthand for State().Kind().
func (c *Controller) Kind() Kind {
	return c.State().Kind()
}

// Preview returns the live geometry of the active gesture.
func (c *Controller) Preview() (DropPreview, bool) {
	if c.active == nil {
		return DropPreview{}, false
	}
	return c.active.Preview()
}

// History returns the last pointer sample bookkeeping.
func (c *Controller) History() PointerHistory { return c.history }

// Resizing reports whether a resize is in progress. Sibling cards use it to
// drop their own hit regions.
func (c *Controller) Resizing() bool {
	return c.Kind() == KindResizing
}

// ActiveID returns the id of the event being moved or resized.
func (c *Controller) ActiveID() string {
	switch s := c.State().(type) {
	case Moving:
		return s.Event.ID
	case Resizing:
		return s.Event.ID
	}
	return ""
}

// BeginCreate starts a new event at p. It is ignored unless idle.
func (c *Controller) BeginCreate(p Pointer) bool {
	if !c.idle() {
		return false
	}
	c.begin(startCreate(c.m, p.inColumn(c.scrollTop)), p)
	return true
}

// BeginMove picks up ev with the pointer at p.
func (c *Controller) BeginMove(ev model.Event, p Pointer) bool {
	if !c.idle() {
		return false
	}
	c.begin(startMove(c.m, ev, p.inColumn(c.scrollTop)), p)
	return true
}

// BeginResize grabs the edge of ev opposite to anchored.
func (c *Controller) BeginResize(ev model.Event, anchored Edge, p Pointer) bool {
	if !c.idle() {
		return false
	}
	c.begin(startResize(c.m, ev, anchored, p.Day), p)
	return true
}

// PointerMove feeds a pointer sample to the active gesture.
func (c *Controller) PointerMove(p Pointer) {
	if c.closed {
		return
	}
	c.remember(p)
	if c.active != nil {
		c.active.Update(p.inColumn(c.scrollTop))
	}
}

// Scroll records a new scroll offset and, when a gesture is active,
// recomputes its geometry from the last pointer sample.
func (c *Controller) Scroll(scrollTop float64) {
	if c.closed {
		return
	}
	c.scrollTop = scrollTop
	c.history.LastScrollTop = scrollTop
	if c.active != nil && c.history.Valid {
		c.active.Update(c.history.last.inColumn(scrollTop))
	}
}

// Release ends the active gesture and commits its result. For a move, p is
// the drop point; releasing outside every column cancels without a write.
// The controller is idle again before the write is dispatched.
func (c *Controller) Release(p Pointer) (model.Event, bool) {
	if c.closed || c.active == nil {
		return model.Event{}, false
	}
	if c.Kind() == KindMoving {
		c.remember(p)
		c.active.Update(p.inColumn(c.scrollTop))
	}
	return c.finish()
}

// Close cancels any gesture and detaches from the sink.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	if c.active != nil {
		c.active.Cancel()
		c.active = nil
	}
	if c.detach != nil {
		c.detach()
	}
	c.closed = true
}

func (c *Controller) idle() bool {
	return !c.closed && c.active == nil
}

func (c *Controller) begin(g Gesture, p Pointer) {
	c.active = g
	c.remember(p)
}

func (c *Controller) remember(p Pointer) {
	c.history.last = p
	c.history.LastPointerY = p.Y
	c.history.LastScrollTop = c.scrollTop
	c.history.Valid = true
}

func (c *Controller) finish() (model.Event, bool) {
	g := c.active
	kind := g.State().Kind()
	c.active = nil
	c.history = PointerHistory{LastScrollTop: c.scrollTop}

	ev, ok := g.Commit()
	if !ok {
		return model.Event{}, false
	}
	created := false
	if ev.ID == "" {
		ev.ID = c.newID()
		ev.Title = DefaultTitle
		created = true
	}
	c.dispatch(Commit{Event: ev, Gesture: kind, Created: created, store: c.store})
	return ev, true
}
