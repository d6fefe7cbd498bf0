// Package uistate tracks the loading, error and data-ready state of a view.
//
// A State is only ever changed by Reduce, usually through a Store. Side-effecting
// work is bracketed by Run or Begin, which dispatch a start action before the work
// and exactly one terminal action (complete or error) after it settles.
package uistate

import "maps"

// Well-known data keys shared by the application shell.
const (
	KeyTokens      = "tokens"
	KeyTokenIndex  = "tokenIndex"
	KeyOfferings   = "stos"
	KeyLastLaunch  = "lastLaunch"
	DefaultMessage = "Loading"
)

// Payload maps state field names to values merged into State.Data on completion.
type Payload map[string]any

// State is the snapshot rendered by a view.
type State struct {
	Loading        bool
	LoadingMessage string
	// Error holds the last failure message; empty means no error.
	Error string
	// Epoch increments on every start and tags the terminal action of that start.
	Epoch uint64
	Data  map[string]any
}

// New returns an idle State seeded with a copy of initial.
func New(initial map[string]any) State {
	data := make(map[string]any, len(initial))
	maps.Copy(data, initial)
	return State{Data: data}
}

// Get returns the raw value stored under key.
func (s State) Get(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// IsSet reports whether key holds a non-nil value.
func (s State) IsSet(key string) bool {
	return s.Data[key] != nil
}

// HasError reports whether the last operation failed.
func (s State) HasError() bool { return s.Error != "" }

// Field returns the value under key asserted to T.
func Field[T any](s State, key string) (T, bool) {
	v, ok := s.Data[key].(T)
	return v, ok
}

// FieldOr returns the value under key or fallback when absent or of another type.
func FieldOr[T any](s State, key string, fallback T) T {
	if v, ok := Field[T](s, key); ok {
		return v
	}
	return fallback
}
