// Package action defines the tagged action variant dispatched through the
// store. An action is identified by (namespace, operation, mode, phase)
// rather than by parsing a type string; Type renders the conventional
// string form for logging and interop.
package action

import (
	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

// Op is the CRUD operation kind.
type Op uint8

const (
	Get Op = iota
	Post
	Patch
	Delete
)

// String returns the conventional upper-case name of the operation.
func (o Op) String() string {
	switch o {
	case Get:
		return "GET"
	case Post:
		return "POST"
	case Patch:
		return "PATCH"
	case Delete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Mode tags whether an operation applies its local update before or after
// the server confirms it.
type Mode uint8

const (
	Pessimistic Mode = iota
	Optimistic
)

func (m Mode) String() string {
	if m == Optimistic {
		return "OPT"
	}
	return "PESS"
}

// Phase is the dispatch phase within one operation.
type Phase uint8

const (
	Start Phase = iota
	Success
	Fail
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "START"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// DefaultSeparator joins a namespace and the operation suffix in Type.
const DefaultSeparator = "/"

// Key identifies a reducer within a namespace's registry.
type Key struct {
	Op    Op
	Mode  Mode
	Phase Phase
}

// Action is one dispatched event.
type Action struct {
	// Namespace routes the action to one collection's registry.
	Namespace string

	// Separator is used by Type; empty means DefaultSeparator.
	Separator string

	Op    Op
	Mode  Mode
	Phase Phase

	// Data carries the state-shaped records the reducers operate on:
	// the optimistic records on START, the translated response records
	// on SUCCESS, the affected records on FAIL.
	Data []collection.Resource

	// RequestData is the wire payload handed to the transport.
	RequestData any

	// ResponseData is the raw transport response payload, before
	// translation into Data.
	ResponseData any

	// Err is set on Fail actions.
	Err error

	// Partial marks the second terminal dispatch of a partially failed
	// request, whose counterpart already resolved the in-flight counter.
	// Counter-moving reducers skip their decrement when set.
	Partial bool

	// Params carries GET query parameters.
	Params map[string]string
}

// Key returns the registry lookup tag for the action.
func (a Action) Key() Key {
	return Key{Op: a.Op, Mode: a.Mode, Phase: a.Phase}
}

// Type renders the conventional action type string,
// "<namespace><separator><OPT|PESS>_<OP>_<START|SUCCESS|FAIL>".
func (a Action) Type() string {
	sep := a.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return a.Namespace + sep + a.Mode.String() + "_" + a.Op.String() + "_" + a.Phase.String()
}
