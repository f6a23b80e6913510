package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/output"
)

// fakeTerm records output and lets tests inject events once started.
type fakeTerm struct {
	mu       sync.Mutex
	out      bytes.Buffer
	stopped  bool
	onEvent  func(uv.Event)
	onResize func(cols, rows int)
	ready    chan struct{}
}

func newFakeTerm() *fakeTerm {
	return &fakeTerm{ready: make(chan struct{})}
}

func (f *fakeTerm) Start(onEvent func(uv.Event), onResize func(cols, rows int)) error {
	f.onEvent = onEvent
	f.onResize = onResize
	close(f.ready)
	return nil
}

func (f *fakeTerm) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTerm) Size() (int, int) { return 20, 10 }

func (f *fakeTerm) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

func (f *fakeTerm) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func (f *fakeTerm) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func testSession(ft *fakeTerm) *session {
	buf := output.New(ft, 20, 10, output.WithSyncOutput(false))
	return newSessionWith(ft, buf, io.NopCloser(nil))
}

func startSession(t *testing.T, s *session, ft *fakeTerm) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	<-ft.ready
	return done
}

func waitForOutput(t *testing.T, ft *fakeTerm, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(ansitext.StripANSI(ft.String()), text)
	}, 2*time.Second, 5*time.Millisecond, "never saw %q in %q", text, ft.String())
}

func press(text string) uv.Event {
	r := []rune(text)[0]
	return uv.KeyPressEvent{Code: r, Text: text}
}

var ctrlC = uv.KeyPressEvent{Code: 'c', Mod: uv.ModCtrl}

func TestSessionRendersEventsAndQuits(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := newFakeTerm()
	s := testSession(ft)
	var typed string
	s.View = func(w, h int) node.Node {
		return node.TextNode("hello " + typed)
	}
	s.OnEvent = func(ev uv.Event) {
		if kp, ok := ev.(uv.KeyPressEvent); ok {
			typed += kp.Text
		}
	}
	done := startSession(t, s, ft)

	waitForOutput(t, ft, "hello")
	ft.onEvent(press("x"))
	waitForOutput(t, ft, "hello x")

	ft.onEvent(ctrlC)
	require.NoError(t, <-done)
	assert.True(t, ft.Stopped())
	assert.True(t, strings.HasSuffix(ft.String(), "\r\n\r\x1b[?25h"), "%q", ft.String())
}

type grabber struct {
	events []uv.Event
}

func (g *grabber) HandleEvent(ev uv.Event) layer.Result {
	g.events = append(g.events, ev)
	return layer.Consumed
}

func TestSessionOffersEventsToLayersFirst(t *testing.T) {
	ft := newFakeTerm()
	s := testSession(ft)
	modal := &grabber{}
	var base []uv.Event
	s.Layers = func() layer.Stack { return layer.Stack{Modal: modal} }
	s.OnEvent = func(ev uv.Event) { base = append(base, ev) }

	s.handleEvent(press("p"))
	assert.Len(t, modal.events, 1)
	assert.Empty(t, base)

	s.Layers = func() layer.Stack { return layer.Stack{} }
	s.handleEvent(press("p"))
	assert.Len(t, base, 1)
}

func TestSessionResize(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := newFakeTerm()
	s := testSession(ft)
	s.View = func(w, h int) node.Node {
		return node.TextNode(strings.Repeat("=", w))
	}
	done := startSession(t, s, ft)
	waitForOutput(t, ft, strings.Repeat("=", 20))

	ft.onResize(30, 10)
	waitForOutput(t, ft, strings.Repeat("=", 30))

	s.Quit()
	require.NoError(t, <-done)
}

func TestSessionTaskErrorEndsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := newFakeTerm()
	s := testSession(ft)
	s.ClearOnExit = true
	boom := errors.New("boom")
	s.Go(func(ctx context.Context) error {
		return boom
	})
	err := s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, ft.Stopped())
	// The frame was erased on the way out.
	assert.Contains(t, ft.String(), "\x1b[J")
}

func TestSessionDispatchRunsOnLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := newFakeTerm()
	s := testSession(ft)
	var count int
	s.View = func(int, int) node.Node {
		return node.TextNode(strings.Repeat("#", count))
	}
	s.Go(func(ctx context.Context) error {
		for range 3 {
			s.Dispatch(func() {
				count++
				s.RequestRender()
			})
		}
		return nil
	})
	done := startSession(t, s, ft)
	waitForOutput(t, ft, "###")
	s.Quit()
	require.NoError(t, <-done)
}
