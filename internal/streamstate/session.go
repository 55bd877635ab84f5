package streamstate

// Session is a thin stateful wrapper around the pure Reduce function, for
// callers that want to feed events one at a time without threading state
// through every call site themselves.
type Session struct {
	state State
}

// NewSession starts a session with the given ring-buffer capacities.
func NewSession(logCapacity, sdkEventCapacity int) *Session {
	return &Session{state: New(logCapacity, sdkEventCapacity)}
}

// Apply folds event into the session's state and returns the updated view.
func (s *Session) Apply(event Event) State {
	s.state = Reduce(s.state, event)
	return s.state
}

// State returns the current derived view.
func (s *Session) State() State {
	return s.state
}
