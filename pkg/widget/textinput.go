// Package widget has the interactive pieces a host app layers over its
// base view: a line editor, a completion popup, a spinner and an adapter
// for bubbletea models. Each one handles ultraviolet events and describes
// itself as a node tree.
package widget

import (
	"strings"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
)

// TextInput is a single-line text editor with cursor movement and
// kill-line support.
type TextInput struct {
	// Prompt is rendered before the input text.
	Prompt      string
	PromptStyle node.Style

	Placeholder string
	Style       node.Style

	value  []rune
	cursor int

	focused bool

	// OnSubmit is called when Enter is pressed. The string is the trimmed
	// input value. Return true to clear the input after submission.
	OnSubmit func(value string) bool

	// OnKey is called for keys not handled by the editor. Return true if
	// the key was consumed.
	OnKey func(key uv.Key) bool

	// OnChange is called after the input value has been modified. It is NOT
	// called for cursor-only movements.
	OnChange func(value string)
}

// NewTextInput creates a TextInput with the given prompt.
func NewTextInput(prompt string) *TextInput {
	return &TextInput{Prompt: prompt}
}

func (t *TextInput) SetFocused(focused bool) { t.focused = focused }

func (t *TextInput) Focused() bool { return t.focused }

// Value returns the current input string.
func (t *TextInput) Value() string { return string(t.value) }

// Cursor returns the cursor position in runes.
func (t *TextInput) Cursor() int { return t.cursor }

// SetValue replaces the input and moves the cursor to the end.
func (t *TextInput) SetValue(s string) {
	t.value = []rune(s)
	t.cursor = len(t.value)
}

// View returns the prompt followed by the input.
func (t *TextInput) View() node.Node {
	return node.Row(
		node.Styled(t.Prompt, t.PromptStyle),
		node.Input{
			Value:       string(t.value),
			Cursor:      t.cursor,
			Placeholder: t.Placeholder,
			Focused:     t.focused,
			Style:       t.Style,
		},
	)
}

// HandleEvent edits the input for key presses and pastes.
func (t *TextInput) HandleEvent(ev uv.Event) layer.Result {
	oldValue := string(t.value)
	defer func() {
		if t.OnChange != nil && string(t.value) != oldValue {
			t.OnChange(string(t.value))
		}
	}()

	switch e := ev.(type) {
	case uv.PasteEvent:
		t.insert([]rune(strings.ReplaceAll(e.Content, "\n", " ")))
		return layer.Consumed
	case uv.KeyPressEvent:
		return t.handleKey(uv.Key(e))
	}
	return layer.Ignored
}

func ctrl(k uv.Key, r rune) bool {
	return k.Mod == uv.ModCtrl && k.Code == r
}

func alt(k uv.Key, r rune) bool {
	return k.Mod == uv.ModAlt && k.Code == r
}

func (t *TextInput) handleKey(k uv.Key) layer.Result {
	switch {
	case k.Code == uv.KeyEnter && k.Mod == 0:
		if t.OnSubmit != nil {
			val := strings.TrimSpace(string(t.value))
			if t.OnSubmit(val) {
				t.value = nil
				t.cursor = 0
			}
		}

	case k.Code == uv.KeyRight && k.Mod == 0, ctrl(k, 'f'):
		if t.cursor < len(t.value) {
			t.cursor++
		}
	case k.Code == uv.KeyLeft && k.Mod == 0, ctrl(k, 'b'):
		if t.cursor > 0 {
			t.cursor--
		}
	case k.Code == uv.KeyHome, ctrl(k, 'a'):
		t.cursor = 0
	case k.Code == uv.KeyEnd, ctrl(k, 'e'):
		t.cursor = len(t.value)

	case k.Code == uv.KeyBackspace, ctrl(k, 'h'):
		if t.cursor > 0 {
			t.value = append(t.value[:t.cursor-1], t.value[t.cursor:]...)
			t.cursor--
		}
	case k.Code == uv.KeyDelete, ctrl(k, 'd'):
		if t.cursor < len(t.value) {
			t.value = append(t.value[:t.cursor], t.value[t.cursor+1:]...)
		}

	// Word movement
	case k.Code == uv.KeyLeft && (k.Mod == uv.ModAlt || k.Mod == uv.ModCtrl), alt(k, 'b'):
		t.cursor = t.wordLeft()
	case k.Code == uv.KeyRight && (k.Mod == uv.ModAlt || k.Mod == uv.ModCtrl), alt(k, 'f'):
		t.cursor = t.wordRight()

	// Kill line
	case ctrl(k, 'u'):
		t.value = t.value[t.cursor:]
		t.cursor = 0
	case ctrl(k, 'k'):
		t.value = t.value[:t.cursor]

	case ctrl(k, 'w'):
		start := t.wordLeft()
		t.value = append(t.value[:start], t.value[t.cursor:]...)
		t.cursor = start
	case alt(k, 'd'):
		end := t.wordRight()
		t.value = append(t.value[:t.cursor], t.value[end:]...)

	case ctrl(k, 't'):
		if t.cursor > 0 && t.cursor < len(t.value) {
			t.value[t.cursor-1], t.value[t.cursor] = t.value[t.cursor], t.value[t.cursor-1]
			t.cursor++
		}

	default:
		if t.OnKey != nil && t.OnKey(k) {
			return layer.Consumed
		}
		if k.Text == "" || k.Mod&(uv.ModCtrl|uv.ModAlt) != 0 {
			return layer.Ignored
		}
		t.insert([]rune(k.Text))
	}
	return layer.Consumed
}

func (t *TextInput) insert(runes []rune) {
	printable := runes[:0:0]
	for _, r := range runes {
		if r >= 0x20 || r == '\t' {
			printable = append(printable, r)
		}
	}
	if len(printable) == 0 {
		return
	}
	newVal := make([]rune, 0, len(t.value)+len(printable))
	newVal = append(newVal, t.value[:t.cursor]...)
	newVal = append(newVal, printable...)
	newVal = append(newVal, t.value[t.cursor:]...)
	t.value = newVal
	t.cursor += len(printable)
}

func (t *TextInput) wordLeft() int {
	i := t.cursor
	for i > 0 && isSpace(t.value[i-1]) {
		i--
	}
	for i > 0 && !isSpace(t.value[i-1]) {
		i--
	}
	return i
}

func (t *TextInput) wordRight() int {
	i := t.cursor
	for i < len(t.value) && !isSpace(t.value[i]) {
		i++
	}
	for i < len(t.value) && isSpace(t.value[i]) {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
