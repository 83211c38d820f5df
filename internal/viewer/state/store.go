package state

import "sync"

// Store owns the current snapshot. Updates are atomic: each Update call
// applies one transition function and notifies subscribers with the result.
// The UI loop is single threaded, but resolutions complete on I/O
// goroutines, so access is serialized with a mutex.
type Store struct {
	mu    sync.Mutex
	state AppState
	subs  []func(AppState)
}

func NewStore() *Store {
	return &Store{}
}

// State returns the current snapshot.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to the current snapshot and installs the result.
// fn must not block and must treat its argument as read-only.
func (s *Store) Update(fn func(AppState) AppState) AppState {
	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next
}

// Subscribe registers fn to run after every update.
func (s *Store) Subscribe(fn func(AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
