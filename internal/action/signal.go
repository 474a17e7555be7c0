package action

import "sync"

// Outcome is what an action reports when it finishes one execution.
type Outcome struct {
	Kind Kind
	Err  error
}

// Ok reports whether the action completed successfully.
func (o Outcome) Ok() bool { return o.Kind == KindOK }

// Signal is the one-shot completion notification from an action to the
// runner. The runner subscribes via Done before calling Run; the action
// must call Complete exactly once per execution. A second Complete is a
// contract violation: it is dropped, reported via the OnDuplicate hook,
// and Complete returns false.
type Signal struct {
	once sync.Once
	ch   chan Outcome

	mu  sync.Mutex
	dup func()
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan Outcome, 1)}
}

// OnDuplicate registers a hook invoked if Complete is called more than once.
func (s *Signal) OnDuplicate(fn func()) {
	s.mu.Lock()
	s.dup = fn
	s.mu.Unlock()
}

// Complete fires the signal. Only the first call delivers; later calls
// return false.
func (s *Signal) Complete(o Outcome) bool {
	fired := false
	s.once.Do(func() {
		s.ch <- o
		fired = true
	})
	if !fired {
		s.mu.Lock()
		dup := s.dup
		s.mu.Unlock()
		if dup != nil {
			dup()
		}
	}
	return fired
}

// Done returns the channel the outcome is delivered on.
func (s *Signal) Done() <-chan Outcome { return s.ch }
