package uistate

import "fmt"

// Action is the closed set of transitions accepted by Reduce.
type Action interface {
	// Type returns the wire name of the action, e.g. ASYNC_START.
	Type() string
	sealed()
}

// Action type names.
const (
	TypeAsyncStart    = "ASYNC_START"
	TypeAsyncComplete = "ASYNC_COMPLETE"
	TypeAsyncError    = "ASYNC_ERROR"
	TypeError         = "ERROR"
	TypeTokenSelected = "TOKEN_SELECTED"
)

// AsyncStart enters the loading state.
type AsyncStart struct {
	Msg string
}

// AsyncComplete merges Payload into state and leaves the loading state.
// A non-zero Epoch ties it to the start it answers.
type AsyncComplete struct {
	Payload Payload
	Epoch   uint64
}

// AsyncError records a failed operation and leaves the loading state.
type AsyncError struct {
	Err   string
	Epoch uint64
}

// Error records a failure that did not come from a wrapped operation.
type Error struct {
	Err string
}

// TokenSelected switches the active token and drops offerings loaded for the previous one.
type TokenSelected struct {
	TokenIndex int
}

func (AsyncStart) Type() string    { return TypeAsyncStart }
func (AsyncComplete) Type() string { return TypeAsyncComplete }
func (AsyncError) Type() string    { return TypeAsyncError }
func (Error) Type() string         { return TypeError }
func (TokenSelected) Type() string { return TypeTokenSelected }

func (AsyncStart) sealed()    {}
func (AsyncComplete) sealed() {}
func (AsyncError) sealed()    {}
func (Error) sealed()         {}
func (TokenSelected) sealed() {}

// TypeOf returns the action name, tolerating nil.
func TypeOf(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.Type()
}

func (a AsyncStart) String() string { return fmt.Sprintf("%s(%q)", TypeAsyncStart, a.Msg) }
func (a AsyncError) String() string { return fmt.Sprintf("%s(%q)", TypeAsyncError, a.Err) }
func (a Error) String() string      { return fmt.Sprintf("%s(%q)", TypeError, a.Err) }
