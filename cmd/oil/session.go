package main

import (
	"context"
	"fmt"
	"io"
	"os"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/sync/errgroup"

	"github.com/vito/oil/pkg/config"
	"github.com/vito/oil/pkg/ioctx"
	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/output"
	"github.com/vito/oil/pkg/render"
	"github.com/vito/oil/pkg/term"
)

// session runs an interactive frame loop. The terminal and the output
// buffer belong to a single goroutine: input, resizes and background work
// are all funneled into it with Dispatch, and renders are coalesced.
type session struct {
	term   term.Terminal
	buf    *output.Buffer
	closer io.Closer

	// View builds the frame for the current viewport.
	View func(width, height int) node.Node

	// Layers returns the layer stack an event is offered to first.
	Layers func() layer.Stack

	// OnEvent receives events no layer consumed.
	OnEvent func(ev uv.Event)

	// ClearOnExit erases the last frame on exit instead of leaving it in
	// the scrollback.
	ClearOnExit bool

	tasks    []func(ctx context.Context) error
	work     chan func()
	renderCh chan struct{}
	cursor   render.Cursor
	ctx      context.Context
	quit     context.CancelFunc
}

func newSession(cfg *config.Config) (*session, error) {
	t := term.NewProcessTerminal(os.Environ())
	opts, closer, err := cfg.BufferOptions()
	if err != nil {
		return nil, err
	}
	cols, rows := t.Size()
	return newSessionWith(t, output.New(t, cols, rows, opts...), closer), nil
}

func newSessionWith(t term.Terminal, buf *output.Buffer, closer io.Closer) *session {
	return &session{
		term:     t,
		buf:      buf,
		closer:   closer,
		View:     func(int, int) node.Node { return node.Empty{} },
		work:     make(chan func(), 64),
		renderCh: make(chan struct{}, 1),
		ctx:      context.Background(),
	}
}

// Go runs task alongside the frame loop once Run starts. A task that
// returns an error ends the session.
func (s *session) Go(task func(ctx context.Context) error) {
	s.tasks = append(s.tasks, task)
}

// Run starts the terminal and blocks until Quit is called, ctx is done or a
// task fails.
func (s *session) Run(ctx context.Context) error {
	ctx, s.quit = context.WithCancel(ctx)
	defer s.quit()
	eg, ctx := errgroup.WithContext(ctx)
	s.ctx = ctx

	err := s.term.Start(
		func(ev uv.Event) {
			s.Dispatch(func() { s.handleEvent(ev) })
		},
		func(cols, rows int) {
			s.Dispatch(func() {
				s.buf.Resize(cols, rows)
				s.RequestRender()
			})
		},
	)
	if err != nil {
		return err
	}
	defer s.term.Stop()

	log := ioctx.LoggerFromContext(ctx)
	cols, rows := s.buf.Size()
	log.Debug("session started", "cols", cols, "rows", rows, "tasks", len(s.tasks))

	for _, task := range s.tasks {
		eg.Go(func() error { return task(ctx) })
	}
	eg.Go(func() error { return s.loop(ctx) })
	err = eg.Wait()
	log.Debug("session ended", "frames", s.buf.Frames(), "err", err)
	return err
}

// Close releases the render stats log.
func (s *session) Close() error {
	return s.closer.Close()
}

// Quit ends the session.
func (s *session) Quit() {
	if s.quit != nil {
		s.quit()
	}
}

// Dispatch runs fn on the session goroutine. Before Run it only queues.
func (s *session) Dispatch(fn func()) {
	select {
	case s.work <- fn:
	case <-s.ctx.Done():
	}
}

// RequestRender schedules a frame. Requests made before the frame is drawn
// are merged.
func (s *session) RequestRender() {
	select {
	case s.renderCh <- struct{}{}:
	default:
	}
}

// ForceRedraw schedules a frame that is written even if nothing changed.
// Must be called on the session goroutine.
func (s *session) ForceRedraw() {
	s.buf.ForceRedraw()
	s.RequestRender()
}

func (s *session) loop(ctx context.Context) error {
	s.RequestRender()
	for {
		select {
		case <-ctx.Done():
			return s.teardown()
		case fn := <-s.work:
			fn()
		case <-s.renderCh:
			if err := s.draw(); err != nil {
				return err
			}
		}
	}
}

func (s *session) handleEvent(ev uv.Event) {
	defer s.RequestRender()
	if isInterrupt(ev) {
		s.Quit()
		return
	}
	if s.Layers != nil && s.Layers().RouteEvent(ev) == layer.Consumed {
		return
	}
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}

func (s *session) draw() error {
	w, h := s.buf.Size()
	res := render.Render(s.View(w, h), w, h)
	var offset int
	if res.Cursor.Visible {
		offset = res.Cursor.RowFromEnd
	}
	wrote, err := s.buf.Render(res.Content(), offset, res.Overlays)
	if err != nil {
		return err
	}
	if wrote || res.Cursor != s.cursor {
		if err := s.buf.SetCursor(res.Cursor.Col, res.Cursor.Visible); err != nil {
			return err
		}
	}
	s.cursor = res.Cursor
	return nil
}

// teardown leaves the cursor on a fresh line below the last frame, or
// erases the frame when ClearOnExit is set.
func (s *session) teardown() error {
	var offset int
	if s.cursor.Visible {
		offset = s.cursor.RowFromEnd
	}
	if s.ClearOnExit {
		if err := s.buf.Clear(offset); err != nil {
			return err
		}
	} else {
		if offset > 0 {
			if _, err := fmt.Fprintf(s.term, "\x1b[%dB", offset); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(s.term, "\r\n"); err != nil {
			return err
		}
	}
	return s.buf.SetCursor(0, true)
}

func isInterrupt(ev uv.Event) bool {
	kp, ok := ev.(uv.KeyPressEvent)
	if !ok {
		return false
	}
	k := uv.Key(kp)
	return k.Mod == uv.ModCtrl && k.Code == 'c'
}

// isKey reports whether ev is an unmodified press of text.
func isKey(ev uv.Event, text string) bool {
	kp, ok := ev.(uv.KeyPressEvent)
	return ok && kp.Text == text && kp.Mod&^uv.ModShift == 0
}
