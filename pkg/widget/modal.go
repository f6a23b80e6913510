package widget

import (
	"strings"
	"sync"

	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
)

// Model is the interface for bubbletea v2 models that can be shown as a
// modal. It matches the common pattern used by bubbles (list, table,
// textinput, etc.) where Update returns the concrete type and View returns a
// string.
type Model[T any] interface {
	Update(tea.Msg) (T, tea.Cmd)
	View() string
}

// Modal wraps a bubbletea v2 model so it can sit on top of the layer stack.
// It bridges the two frameworks:
//
//   - View calls the model's View() and returns it as a node
//   - HandleEvent forwards key events as tea.KeyPressMsg and consumes
//     every event, since a modal captures all input
//   - SetSize delivers tea.WindowSizeMsg when the size changes
//   - Commands returned by Update are executed asynchronously and their
//     resulting messages are fed back through Update
type Modal[T Model[T]] struct {
	mu     sync.Mutex
	model  T
	width  int
	height int
	onQuit func()

	// dispatch schedules work on the UI goroutine. When nil, command
	// results are applied directly under the modal's lock.
	dispatch func(func())

	cmds sync.WaitGroup
}

// NewModal wraps model. dispatch, if non-nil, is used to apply command
// results on the goroutine that owns rendering.
func NewModal[T Model[T]](model T, dispatch func(func())) *Modal[T] {
	return &Modal[T]{model: model, dispatch: dispatch}
}

// OnQuit sets a callback invoked when the model returns a tea.QuitMsg. This
// lets the host close the modal.
func (m *Modal[T]) OnQuit(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onQuit = fn
}

// Model returns the underlying bubbletea model.
func (m *Modal[T]) Model() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SendMsg feeds msg through Update as if it came from a command.
func (m *Modal[T]) SendMsg(msg tea.Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateModel(msg)
}

// Wait blocks until every command started so far has finished.
func (m *Modal[T]) Wait() {
	m.cmds.Wait()
}

// updateModel must be called with mu held.
func (m *Modal[T]) updateModel(msg tea.Msg) {
	var cmd tea.Cmd
	m.model, cmd = m.model.Update(msg)
	if cmd != nil {
		m.execCmd(cmd)
	}
}

func (m *Modal[T]) execCmd(cmd tea.Cmd) {
	m.cmds.Add(1)
	go func() {
		defer m.cmds.Done()
		msg := cmd()
		if msg == nil {
			return
		}
		apply := func() {
			if _, ok := msg.(tea.QuitMsg); ok {
				// The host may call back into the modal, so the lock is
				// released first.
				m.mu.Lock()
				onQuit := m.onQuit
				m.mu.Unlock()
				if onQuit != nil {
					onQuit()
				}
				return
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, c := range batch {
					if c != nil {
						m.execCmd(c)
					}
				}
				return
			}
			m.updateModel(msg)
		}
		if m.dispatch != nil {
			m.dispatch(apply)
		} else {
			apply()
		}
	}()
}

// SetSize sends a tea.WindowSizeMsg if the size changed.
func (m *Modal[T]) SetSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	m.updateModel(tea.WindowSizeMsg{Width: width, Height: height})
}

// View returns the model's view as untruncated, unwrapped text.
func (m *Modal[T]) View() node.Node {
	m.mu.Lock()
	view := m.model.View()
	m.mu.Unlock()
	view = strings.TrimSuffix(view, "\n")
	return node.Text{Content: view, Wrap: node.WrapTruncate}
}

// HandleEvent implements layer.InteractiveWidget.
func (m *Modal[T]) HandleEvent(ev uv.Event) layer.Result {
	var msg tea.Msg
	switch e := ev.(type) {
	case uv.KeyPressEvent:
		msg = tea.KeyPressMsg(e)
	case uv.KeyReleaseEvent:
		msg = tea.KeyReleaseMsg(e)
	}
	if msg != nil {
		m.mu.Lock()
		m.updateModel(msg)
		m.mu.Unlock()
	}
	// Bubbletea models consume all input.
	return layer.Consumed
}
