// Package term drives the process's terminal: raw mode, resize
// notifications, decoded input events and color-profile aware output.
// Rendering stays on the normal scrollback buffer; there is no alternate
// screen.
package term

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/colorprofile"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Terminal abstracts terminal I/O so hosts can be tested without a tty.
type Terminal interface {
	io.Writer

	// Start puts the terminal into raw mode and begins delivering input
	// events and resizes. Both callbacks run on terminal-owned goroutines.
	Start(onEvent func(uv.Event), onResize func(cols, rows int)) error

	// Stop restores the terminal to its original state.
	Stop()

	// Size returns the current terminal dimensions.
	Size() (cols, rows int)
}

const (
	bracketedPasteOn  = "\x1b[?2004h"
	bracketedPasteOff = "\x1b[?2004l"
)

// ProcessTerminal is a Terminal backed by os.Stdin and os.Stdout.
// Dimensions are cached and refreshed on SIGWINCH to avoid an ioctl per
// frame.
type ProcessTerminal struct {
	in  *os.File
	out *colorprofile.Writer

	origTermios *unix.Termios
	onEvent     func(uv.Event)
	onResize    func(cols, rows int)
	sigCh       chan os.Signal
	stopCtx     context.Context
	stopCancel  context.CancelFunc
	decoder     InputDecoder

	sizeMu sync.RWMutex
	cols   int
	rows   int
}

// NewProcessTerminal returns a terminal on the process's stdio. Output is
// downsampled to the color profile detected from stdout and environ.
func NewProcessTerminal(environ []string) *ProcessTerminal {
	return &ProcessTerminal{
		in:  os.Stdin,
		out: colorprofile.NewWriter(os.Stdout, environ),
	}
}

// Profile reports the color profile output is converted to.
func (t *ProcessTerminal) Profile() colorprofile.Profile {
	return t.out.Profile
}

func (t *ProcessTerminal) Start(onEvent func(uv.Event), onResize func(cols, rows int)) error {
	t.onEvent = onEvent
	t.onResize = onResize
	t.stopCtx, t.stopCancel = context.WithCancel(context.Background())

	fd := int(t.in.Fd())
	orig, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return errors.Wrap(err, "get termios")
	}
	t.origTermios = orig

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return errors.Wrap(err, "set raw mode")
	}

	t.refreshSize()

	t.writeControl(bracketedPasteOn)
	// Disambiguate escape codes so modified keys like shift+enter arrive
	// intact. The query response is decoded like any other input.
	t.writeControl(ansi.KittyKeyboard(ansi.KittyDisambiguateEscapeCodes, 1))
	t.writeControl(ansi.RequestKittyKeyboard)

	go t.readInput()

	t.sigCh = make(chan os.Signal, 1)
	signal.Notify(t.sigCh, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-t.sigCh:
				t.refreshSize()
				if t.onResize != nil {
					t.onResize(t.Size())
				}
			case <-t.stopCtx.Done():
				return
			}
		}
	}()

	return nil
}

func (t *ProcessTerminal) readInput() {
	buf := make([]byte, 4096)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			for _, ev := range t.decoder.Feed(buf[:n]) {
				if t.stopCtx.Err() != nil {
					return
				}
				t.onEvent(ev)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("terminal input closed", "err", err)
			}
			return
		}
	}
}

func (t *ProcessTerminal) Stop() {
	t.writeControl(ansi.KittyKeyboard(0, 1))
	t.writeControl(bracketedPasteOff)

	if t.stopCancel != nil {
		t.stopCancel()
	}
	if t.sigCh != nil {
		signal.Stop(t.sigCh)
	}
	if t.origTermios != nil {
		_ = unix.IoctlSetTermios(int(t.in.Fd()), ioctlWriteTermios, t.origTermios)
	}
}

// Write sends p to stdout, converting SGR colors to the terminal profile.
func (t *ProcessTerminal) Write(p []byte) (int, error) {
	n, err := t.out.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "write terminal")
	}
	return n, nil
}

func (t *ProcessTerminal) writeControl(s string) {
	_, _ = t.out.Forward.Write([]byte(s))
}

// Size returns the cached dimensions, querying the kernel the first time.
// It falls back to 80x24 when stdout is not a terminal.
func (t *ProcessTerminal) Size() (int, int) {
	t.sizeMu.RLock()
	c, r := t.cols, t.rows
	t.sizeMu.RUnlock()
	if c == 0 || r == 0 {
		t.refreshSize()
		t.sizeMu.RLock()
		c, r = t.cols, t.rows
		t.sizeMu.RUnlock()
	}
	if c == 0 {
		c = 80
	}
	if r == 0 {
		r = 24
	}
	return c, r
}

func (t *ProcessTerminal) refreshSize() {
	cols, rows, ok := StdoutSize()
	if !ok {
		return
	}
	t.sizeMu.Lock()
	t.cols = cols
	t.rows = rows
	t.sizeMu.Unlock()
}

// StdoutSize asks the kernel for the size of the terminal on stdout. ok is
// false when stdout is not a terminal or reports a zero size.
func StdoutSize() (cols, rows int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 0, 0, false
	}
	return int(ws.Col), int(ws.Row), true
}
