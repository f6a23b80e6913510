package widget

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/render"
)

func press(text string) uv.Event {
	r := []rune(text)
	return uv.KeyPressEvent{Code: r[0], Text: text}
}

func code(c rune) uv.Event {
	return uv.KeyPressEvent{Code: c}
}

func ctrlKey(c rune) uv.Event {
	return uv.KeyPressEvent{Code: c, Mod: uv.ModCtrl}
}

func typeText(w layer.InteractiveWidget, s string) {
	for _, r := range s {
		w.HandleEvent(press(string(r)))
	}
}

func TestTextInputEditing(t *testing.T) {
	in := NewTextInput("> ")
	typeText(in, "hello world")
	assert.Equal(t, "hello world", in.Value())
	assert.Equal(t, 11, in.Cursor())

	in.HandleEvent(code(uv.KeyBackspace))
	assert.Equal(t, "hello worl", in.Value())

	in.HandleEvent(ctrlKey('w'))
	assert.Equal(t, "hello ", in.Value())

	in.HandleEvent(ctrlKey('a'))
	assert.Equal(t, 0, in.Cursor())
	typeText(in, ">")
	assert.Equal(t, ">hello ", in.Value())

	in.HandleEvent(code(uv.KeyRight))
	in.HandleEvent(ctrlKey('k'))
	assert.Equal(t, ">h", in.Value())

	in.HandleEvent(code(uv.KeyLeft))
	in.HandleEvent(code(uv.KeyDelete))
	assert.Equal(t, ">", in.Value())

	in.HandleEvent(ctrlKey('e'))
	in.HandleEvent(ctrlKey('u'))
	assert.Equal(t, "", in.Value())
}

func TestTextInputWordMovement(t *testing.T) {
	in := NewTextInput("")
	in.SetValue("one two three")
	in.HandleEvent(uv.KeyPressEvent{Code: uv.KeyLeft, Mod: uv.ModAlt})
	assert.Equal(t, 8, in.Cursor())
	in.HandleEvent(uv.KeyPressEvent{Code: uv.KeyLeft, Mod: uv.ModCtrl})
	assert.Equal(t, 4, in.Cursor())
	in.HandleEvent(uv.KeyPressEvent{Code: 'd', Mod: uv.ModAlt})
	assert.Equal(t, "one three", in.Value())
	in.HandleEvent(uv.KeyPressEvent{Code: uv.KeyRight, Mod: uv.ModAlt})
	assert.Equal(t, 9, in.Cursor())
}

func TestTextInputTranspose(t *testing.T) {
	in := NewTextInput("")
	in.SetValue("ab")
	in.HandleEvent(code(uv.KeyLeft))
	in.HandleEvent(ctrlKey('t'))
	assert.Equal(t, "ba", in.Value())
	assert.Equal(t, 2, in.Cursor())
}

func TestTextInputSubmit(t *testing.T) {
	in := NewTextInput("> ")
	var submitted []string
	in.OnSubmit = func(v string) bool {
		submitted = append(submitted, v)
		return true
	}
	typeText(in, "  run  ")
	assert.Equal(t, layer.Consumed, in.HandleEvent(code(uv.KeyEnter)))
	assert.Equal(t, []string{"run"}, submitted)
	assert.Equal(t, "", in.Value())
}

func TestTextInputOnChangeSkipsCursorMoves(t *testing.T) {
	in := NewTextInput("")
	var changes []string
	in.OnChange = func(v string) { changes = append(changes, v) }
	typeText(in, "ab")
	in.HandleEvent(code(uv.KeyLeft))
	in.HandleEvent(code(uv.KeyHome))
	assert.Equal(t, []string{"a", "ab"}, changes)
}

func TestTextInputPaste(t *testing.T) {
	in := NewTextInput("")
	assert.Equal(t, layer.Consumed, in.HandleEvent(uv.PasteEvent{Content: "multi\nline"}))
	assert.Equal(t, "multi line", in.Value())
}

func TestTextInputUnhandledKeys(t *testing.T) {
	in := NewTextInput("")
	assert.Equal(t, layer.Ignored, in.HandleEvent(ctrlKey('g')))
	assert.Equal(t, layer.Ignored, in.HandleEvent(code(uv.KeyUp)))

	var seen []rune
	in.OnKey = func(k uv.Key) bool {
		seen = append(seen, k.Code)
		return k.Code == uv.KeyTab
	}
	assert.Equal(t, layer.Consumed, in.HandleEvent(code(uv.KeyTab)))
	assert.Equal(t, layer.Ignored, in.HandleEvent(code(uv.KeyUp)))
	assert.Equal(t, []rune{uv.KeyTab, uv.KeyUp}, seen)
	assert.Equal(t, "", in.Value())
}

func TestTextInputView(t *testing.T) {
	in := NewTextInput("> ")
	in.Placeholder = "ask anything"
	in.SetFocused(true)

	res := render.Render(in.View(), 40, 10)
	assert.Equal(t, []string{"> ask anything"}, []string{ansitext.StripANSI(res.Lines[0])})
	assert.Equal(t, render.Cursor{Col: 2, Visible: true}, res.Cursor)

	typeText(in, "héllo")
	in.HandleEvent(code(uv.KeyLeft))
	res = render.Render(in.View(), 40, 10)
	assert.Equal(t, "> héllo", res.Lines[0])
	assert.Equal(t, 6, res.Cursor.Col)
}

func items(labels ...string) []node.PopupItem {
	out := make([]node.PopupItem, len(labels))
	for i, l := range labels {
		out[i] = node.PopupItem{Label: l}
	}
	return out
}

func labels(items []node.PopupItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestFuzzySource(t *testing.T) {
	src := FuzzySource{Items: items("open_file", "close", "format")}
	assert.Equal(t, []string{"open_file", "close", "format"}, labels(src.Complete("")))
	assert.Equal(t, []string{"open_file"}, labels(src.Complete("of")))
	assert.Empty(t, src.Complete("zzz"))
}

func TestCompletionPopupNavigation(t *testing.T) {
	p := NewCompletionPopup(FuzzySource{Items: items("a", "b", "c", "d")})
	p.MaxVisible = 2

	assert.Equal(t, layer.Ignored, p.HandleEvent(code(uv.KeyDown)), "closed popup ignores keys")
	assert.Equal(t, node.Empty{}, p.View())

	p.SetQuery("")
	require.True(t, p.IsOpen())

	p.HandleEvent(code(uv.KeyDown))
	p.HandleEvent(code(uv.KeyDown))
	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "c", sel.Label)

	view, ok := p.View().(node.Popup)
	require.True(t, ok)
	assert.Equal(t, 2, view.Selected)
	assert.Equal(t, 1, view.ViewportOffset)

	// Wraps around from the top.
	p.SetQuery("")
	p.HandleEvent(code(uv.KeyUp))
	sel, _ = p.Selected()
	assert.Equal(t, "d", sel.Label)
	assert.Equal(t, 2, p.View().(node.Popup).ViewportOffset)

	assert.Equal(t, layer.Ignored, p.HandleEvent(press("x")))
}

func TestCompletionPopupSelectAndDismiss(t *testing.T) {
	var selected []string
	dismissed := 0
	p := NewCompletionPopup(FuzzySource{Items: items("alpha", "beta")})
	p.OnSelect = func(it node.PopupItem) { selected = append(selected, it.Label) }
	p.OnDismiss = func() { dismissed++ }

	p.SetQuery("")
	p.HandleEvent(code(uv.KeyDown))
	assert.Equal(t, layer.Consumed, p.HandleEvent(code(uv.KeyEnter)))
	assert.Equal(t, []string{"beta"}, selected)
	assert.False(t, p.IsOpen())

	p.SetQuery("al")
	p.HandleEvent(code(uv.KeyTab))
	assert.Equal(t, []string{"beta", "alpha"}, selected)

	p.SetQuery("")
	assert.Equal(t, layer.Consumed, p.HandleEvent(code(uv.KeyEscape)))
	assert.Equal(t, 1, dismissed)
	assert.False(t, p.IsOpen())

	p.SetQuery("nothing matches")
	assert.False(t, p.IsOpen())
}

func TestCompletionPopupInLayerStack(t *testing.T) {
	in := NewTextInput("")
	p := NewCompletionPopup(FuzzySource{Items: items("alpha", "beta")})
	p.SetQuery("")

	stack := layer.Stack{Popup: p, Focus: layer.FocusPopup}
	route := func(ev uv.Event) {
		if stack.RouteEvent(ev) == layer.Ignored {
			in.HandleEvent(ev)
		}
	}
	route(code(uv.KeyDown))
	route(press("x"))
	assert.Equal(t, "x", in.Value())
	sel, _ := p.Selected()
	assert.Equal(t, "beta", sel.Label)
}

func TestSpinnerFrames(t *testing.T) {
	s := NewSpinner("working", 100*time.Millisecond)
	start := s.start
	s.now = func() time.Time { return start.Add(250 * time.Millisecond) }
	assert.Equal(t, 2, s.Frame())

	view := s.View().(node.Spinner)
	assert.Equal(t, node.DefaultSpinnerFrames[2], view.CurrentFrame())
	assert.Equal(t, layer.Ignored, s.HandleEvent(press("x")))

	assert.Equal(t, DefaultSpinnerInterval, NewSpinner("", 0).Interval())
}

func TestSpinnerRunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewSpinner("", time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	done := make(chan error)
	go func() {
		done <- s.Run(ctx, func() {
			if ticks.Add(1) == 3 {
				cancel()
			}
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("spinner did not stop")
	}
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

type incMsg struct{}

type counter struct {
	count int
	typed string
	width int
}

func (c counter) Update(msg tea.Msg) (counter, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.Text {
		case "+":
			return c, func() tea.Msg { return incMsg{} }
		case "q":
			return c, tea.Quit
		}
		c.typed += msg.Text
	case incMsg:
		c.count++
	case tea.WindowSizeMsg:
		c.width = msg.Width
	}
	return c, nil
}

func (c counter) View() string {
	return fmt.Sprintf("count=%d typed=%s\n", c.count, c.typed)
}

func TestModalForwardsKeys(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewModal(counter{}, nil)
	assert.Equal(t, layer.Consumed, m.HandleEvent(press("h")))
	assert.Equal(t, layer.Consumed, m.HandleEvent(press("i")))
	assert.Equal(t, layer.Consumed, m.HandleEvent(uv.PasteEvent{Content: "ignored"}))
	assert.Equal(t, "hi", m.Model().typed)

	res := render.Render(m.View(), 40, 10)
	assert.Equal(t, []string{"count=0 typed=hi"}, res.Lines)
}

func TestModalRunsCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewModal(counter{}, nil)
	m.HandleEvent(press("+"))
	m.HandleEvent(press("+"))
	m.Wait()
	assert.Equal(t, 2, m.Model().count)
}

func TestModalDispatchesOnHostGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := make(chan func(), 4)
	m := NewModal(counter{}, func(fn func()) { queue <- fn })
	m.HandleEvent(press("+"))
	m.Wait()
	assert.Equal(t, 0, m.Model().count)

	(<-queue)()
	assert.Equal(t, 1, m.Model().count)
}

func TestModalQuit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var quit atomic.Bool
	m := NewModal(counter{}, nil)
	m.OnQuit(func() { quit.Store(true) })
	m.HandleEvent(press("q"))
	m.Wait()
	assert.True(t, quit.Load())
}

func TestModalQuitCallbackCanUseModal(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewModal(counter{}, nil)
	var final counter
	m.OnQuit(func() {
		m.SendMsg(incMsg{})
		final = m.Model()
	})
	m.HandleEvent(press("q"))

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("quit callback deadlocked")
	}
	assert.Equal(t, 1, final.count)
}

func TestModalSetSize(t *testing.T) {
	m := NewModal(counter{}, nil)
	m.SetSize(80, 24)
	assert.Equal(t, 80, m.Model().width)
	m.SendMsg(incMsg{})
	assert.Equal(t, 1, m.Model().count)
}
