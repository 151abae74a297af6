package mintstate

import (
	"sync"
)

// Listener is called with every new state after it has been committed.
type Listener func(State)

// Store owns the current State and serialises transitions.
type Store struct {
	// notifyMu orders commits and their notifications, so listeners see
	// states in commit order. Listeners must not call Dispatch.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     State
	listeners []Listener

	connectedOnce sync.Once
	connected     chan struct{}
}

// NewStore returns a store seeded with Initial().
func NewStore() *Store {
	return &Store{
		state:     Initial(),
		connected: make(chan struct{}),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for future changes. It is not called for the
// current state.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Connected is closed once the session has connected.
func (s *Store) Connected() <-chan struct{} {
	return s.connected
}

// Dispatch applies t atomically and notifies listeners when the state
// changed. The committed state is returned.
func (s *Store) Dispatch(t Transition) (State, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next, err := Apply(prev, t)
	if err != nil {
		s.mu.Unlock()
		return prev, err
	}
	s.state = next
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if next.Connected {
		s.connectedOnce.Do(func() { close(s.connected) })
	}
	if next != prev {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return next, nil
}
