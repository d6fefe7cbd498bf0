package uistate

import (
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher applies an action and returns the resulting state.
type Dispatcher interface {
	Dispatch(a Action) State
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(a Action) State

// Dispatch implements Dispatcher.
func (f DispatchFunc) Dispatch(a Action) State { return f(a) }

// Recorder receives dispatch and operation observations.
type Recorder interface {
	ObserveAction(actionType string)
	ObserveStale(actionType string)
	ObserveOperation(message string, elapsed time.Duration, failed bool)
}

// operationObserver is implemented by dispatchers that want operation timings.
type operationObserver interface {
	ObserveOperation(message string, elapsed time.Duration, failed bool)
}

// Listener is called after every transition with the action and the new state.
type Listener func(a Action, s State)

// Store owns a State for the lifetime of a view.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
	recorder  Recorder
}

// StoreOption mutates Store configuration.
type StoreOption func(*Store)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) StoreOption {
	return func(s *Store) {
		s.listeners = append(s.listeners, l)
	}
}

// NewStore returns a Store in the idle state seeded with initial data.
func NewStore(initial map[string]any, opts ...StoreOption) *Store {
	s := &Store{state: New(initial)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l for all future transitions.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Dispatch applies a through Reduce. Unrecognized actions panic.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	stale := IsStale(s.state, a)
	next := s.reduceLocked(a)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"action":  TypeOf(a),
		"loading": next.Loading,
		"epoch":   next.Epoch,
		"stale":   stale,
	}).Debug("dispatch")

	if s.recorder != nil {
		s.recorder.ObserveAction(TypeOf(a))
		if stale {
			s.recorder.ObserveStale(TypeOf(a))
		}
	}
	for _, l := range listeners {
		l(a, next)
	}
	return next
}

// reduceLocked keeps the lock released when Reduce panics.
func (s *Store) reduceLocked(a Action) State {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Unlock()
			panic(r)
		}
	}()
	s.state = Reduce(s.state, a)
	return s.state
}

// ObserveOperation forwards operation timings to the recorder, if any.
func (s *Store) ObserveOperation(message string, elapsed time.Duration, failed bool) {
	if s.recorder != nil {
		s.recorder.ObserveOperation(message, elapsed, failed)
	}
}
