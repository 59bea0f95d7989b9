package interact

// Sink delivers pointer releases from the outermost scope of the host, so a
// release is seen even when the pointer has left the grid.
type Sink interface {
	// Attach registers fn and returns a function that removes it.
	Attach(fn func(Pointer)) (detach func())
}

// ReleaseSink is a Sink the host fires from its top-level event loop.
type ReleaseSink struct {
	handlers map[int]func(Pointer)
	next     int
}

// NewReleaseSink returns an empty sink.
func NewReleaseSink() *ReleaseSink {
	return &ReleaseSink{handlers: make(map[int]func(Pointer))}
}

func (s *ReleaseSink) Attach(fn func(Pointer)) func() {
	id := s.next
	s.next++
	s.handlers[id] = fn
	return func() { delete(s.handlers, id) }
}

// Release fires every attached handler with p.
func (s *ReleaseSink) Release(p Pointer) {
	for _, fn := range s.handlers {
		fn(p)
	}
}

// Len returns the number of attached handlers.
func (s *ReleaseSink) Len() int {
	return len(s.handlers)
}
