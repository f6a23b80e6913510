// Package layer routes input events to the widget layered on top of the
// base view: a modal captures everything, a popup captures only when it has
// focus, and anything else is left to the caller.
package layer

import (
	"log/slog"
	"reflect"

	uv "github.com/charmbracelet/ultraviolet"
)

// Result says whether a widget used an event.
type Result int

const (
	Ignored Result = iota
	Consumed
)

func (r Result) String() string {
	if r == Consumed {
		return "consumed"
	}
	return "ignored"
}

// FocusTarget is which layer currently has keyboard focus.
type FocusTarget int

const (
	FocusBase FocusTarget = iota
	FocusPopup
)

func (f FocusTarget) String() string {
	if f == FocusPopup {
		return "popup"
	}
	return "base"
}

// InteractiveWidget is anything that can take an input event.
type InteractiveWidget interface {
	HandleEvent(ev uv.Event) Result
}

// Stack is rebuilt for each event from the host's current state and
// consulted once.
type Stack struct {
	Popup InteractiveWidget
	Modal InteractiveWidget
	Focus FocusTarget
}

// RouteEvent offers ev to the modal if there is one, otherwise to the popup
// if it has focus. Events that reach neither are Ignored and belong to the
// base layer.
func (s Stack) RouteEvent(ev uv.Event) Result {
	if present(s.Modal) {
		res := s.Modal.HandleEvent(ev)
		slog.Debug("event routed", "layer", "modal", "result", res)
		return res
	}
	if s.Focus == FocusPopup && present(s.Popup) {
		res := s.Popup.HandleEvent(ev)
		slog.Debug("event routed", "layer", "popup", "result", res)
		return res
	}
	return Ignored
}

// present reports whether w holds a usable widget. An interface holding a
// nil pointer counts as absent.
func present(w InteractiveWidget) bool {
	if w == nil {
		return false
	}
	v := reflect.ValueOf(w)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !v.IsNil()
	}
	return true
}
