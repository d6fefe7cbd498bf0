package uistate

import (
	"errors"
	"fmt"
	"maps"
)

// ErrUnrecognizedAction is the panic value (wrapped) for actions outside the closed set.
var ErrUnrecognizedAction = errors.New("unrecognized action type")

// Reduce applies a to s and returns the next state. It never mutates the Data map of s.
//
// Reduce panics on an action it does not know; that is a programming error, not a
// runtime condition.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AsyncStart:
		s.Loading = true
		s.LoadingMessage = a.Msg
		s.Error = ""
		s.Epoch++
		return s

	case AsyncComplete:
		if IsStale(s, a) {
			return s
		}
		s.Data = merge(s.Data, a.Payload)
		s.Loading = false
		s.LoadingMessage = ""
		s.Error = ""
		return s

	case AsyncError:
		if IsStale(s, a) {
			return s
		}
		return failed(s, a.Err)

	case Error:
		return failed(s, a.Err)

	case TokenSelected:
		s.Data = merge(s.Data, Payload{KeyTokenIndex: a.TokenIndex, KeyOfferings: nil})
		s.Error = ""
		return s

	default:
		panic(fmt.Errorf("%w: %s (%T)", ErrUnrecognizedAction, TypeOf(a), a))
	}
}

// IsStale reports whether a is a terminal action answering a start that has since
// been superseded. Terminal actions with a zero epoch are never stale.
func IsStale(s State, a Action) bool {
	var epoch uint64
	switch a := a.(type) {
	case AsyncComplete:
		epoch = a.Epoch
	case AsyncError:
		epoch = a.Epoch
	default:
		return false
	}
	return epoch != 0 && epoch != s.Epoch
}

func failed(s State, msg string) State {
	s.Loading = false
	s.LoadingMessage = ""
	s.Error = msg
	return s
}

func merge(data map[string]any, payload Payload) map[string]any {
	next := make(map[string]any, len(data)+len(payload))
	maps.Copy(next, data)
	maps.Copy(next, payload)
	return next
}
