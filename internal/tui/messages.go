package tui

import "github.com/ensigniasec/tiered-sto/internal/uistate"

// opKind names the operation an actionMsg settles.
type opKind int

const (
	opTokens opKind = iota
	opOfferings
	opLaunch
)

func (k opKind) String() string {
	switch k {
	case opTokens:
		return "tokens"
	case opOfferings:
		return "offerings"
	case opLaunch:
		return "launch"
	default:
		return "unknown"
	}
}

// actionMsg carries the terminal action of a settled operation back into Update.
type actionMsg struct {
	Op     opKind
	Action uistate.Action
}
