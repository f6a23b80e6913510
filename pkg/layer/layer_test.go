package layer

import (
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
)

type recordingWidget struct {
	result Result
	events []uv.Event
}

func (w *recordingWidget) HandleEvent(ev uv.Event) Result {
	w.events = append(w.events, ev)
	return w.result
}

func keyP() uv.Event {
	return uv.KeyPressEvent{Code: 'p', Text: "p"}
}

func TestModalCapturesEvenWhenPopupFocused(t *testing.T) {
	modal := &recordingWidget{result: Consumed}
	popup := &recordingWidget{result: Consumed}

	res := Stack{Popup: popup, Modal: modal, Focus: FocusPopup}.RouteEvent(keyP())
	assert.Equal(t, Consumed, res)
	assert.Len(t, modal.events, 1)
	assert.Empty(t, popup.events)
}

func TestModalResultIsReturnedAsIs(t *testing.T) {
	modal := &recordingWidget{result: Ignored}
	popup := &recordingWidget{result: Consumed}

	res := Stack{Popup: popup, Modal: modal, Focus: FocusPopup}.RouteEvent(keyP())
	assert.Equal(t, Ignored, res)
	assert.Empty(t, popup.events)
}

func TestFocusedPopupReceivesEvents(t *testing.T) {
	popup := &recordingWidget{result: Consumed}

	res := Stack{Popup: popup, Focus: FocusPopup}.RouteEvent(keyP())
	assert.Equal(t, Consumed, res)
	assert.Equal(t, []uv.Event{keyP()}, popup.events)
}

func TestUnfocusedPopupIsSkipped(t *testing.T) {
	popup := &recordingWidget{result: Consumed}

	res := Stack{Popup: popup, Focus: FocusBase}.RouteEvent(keyP())
	assert.Equal(t, Ignored, res)
	assert.Empty(t, popup.events)
}

func TestEmptyStackIgnores(t *testing.T) {
	assert.Equal(t, Ignored, Stack{}.RouteEvent(keyP()))
	assert.Equal(t, Ignored, Stack{Focus: FocusPopup}.RouteEvent(keyP()))
}

func TestTypedNilCountsAsAbsent(t *testing.T) {
	var modal *recordingWidget
	popup := &recordingWidget{result: Consumed}

	res := Stack{Popup: popup, Modal: modal, Focus: FocusPopup}.RouteEvent(keyP())
	assert.Equal(t, Consumed, res)
	assert.Len(t, popup.events, 1)
}

func TestResultAndFocusStrings(t *testing.T) {
	assert.Equal(t, "consumed", Consumed.String())
	assert.Equal(t, "ignored", Ignored.String())
	assert.Equal(t, "popup", FocusPopup.String())
	assert.Equal(t, "base", FocusBase.String())
}
