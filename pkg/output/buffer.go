// Package output draws frames into the terminal's normal scrollback. It
// remembers the previous frame and how many rows it took, so each new frame
// can move back up over it, clear, and redraw in place while older content
// scrolls off into native scrollback.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/overlay"
)

const (
	syncBegin   = "\x1b[?2026h" // begin synchronized output
	syncEnd     = "\x1b[?2026l" // end synchronized output
	clearBelow  = "\x1b[J"      // erase from cursor to end of screen
	clearScreen = "\x1b[H\x1b[2J"
	showCursor  = "\x1b[?25h"
	hideCursor  = "\x1b[?25l"
)

// Option configures a Buffer.
type Option func(*Buffer)

// WithDebugWriter writes one JSONL StatsRecord per Render call to w.
func WithDebugWriter(w io.Writer) Option {
	return func(b *Buffer) {
		b.debugWriter = w
	}
}

// WithStyleSensitiveDiff makes style-only changes count as changes. By
// default frames are compared with escape sequences stripped, so recoloring
// a line without changing its text does not redraw it.
func WithStyleSensitiveDiff() Option {
	return func(b *Buffer) {
		b.styleSensitive = true
	}
}

// WithSyncOutput controls whether frames are wrapped in the synchronized
// update bracket. It is on by default.
func WithSyncOutput(enabled bool) Option {
	return func(b *Buffer) {
		b.syncOutput = enabled
	}
}

// Buffer owns the terminal output and the previous frame. Nothing else may
// write to the terminal between frames, or the row accounting drifts.
type Buffer struct {
	mu sync.Mutex // protects all mutable state below

	w      io.Writer
	width  int
	height int

	prevLines        []string
	prevRows         int
	lastCursorOffset int
	forceNext        bool

	styleSensitive bool
	syncOutput     bool
	debugWriter    io.Writer

	frames    int
	lastStats RenderStats
}

// New returns a Buffer writing to w for a terminal of the given size.
func New(w io.Writer, width, height int, opts ...Option) *Buffer {
	b := &Buffer{
		w:          w,
		width:      width,
		height:     height,
		syncOutput: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Size returns the terminal size the buffer is drawing for.
func (b *Buffer) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Lines returns a copy of the previous frame as it was drawn.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prevLines...)
}

// Frames returns the number of frames actually written.
func (b *Buffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// LastStats returns the stats of the most recent Render call.
func (b *Buffer) LastStats() RenderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastStats
}

// Render draws content, a newline-separated frame, with overlays composited
// on top. cursorOffsetFromEnd is the number of visual rows below the row the
// cursor should be left on. It reports whether anything was written.
func (b *Buffer) Render(content string, cursorOffsetFromEnd int, overlays []overlay.Overlay) (bool, error) {
	totalStart := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	stats := RenderStats{
		OverlayCount:     len(overlays),
		Forced:           b.forceNext,
		FirstChangedLine: -1,
		LastChangedLine:  -1,
	}
	defer func() {
		stats.TotalTime = time.Since(totalStart)
		b.lastStats = stats
		if b.debugWriter != nil {
			writeStats(b.debugWriter, stats)
		}
	}()

	lines := collapseBlankRuns(splitLines(content))
	stats.TotalLines = len(lines)

	viewport := clampViewport(lines, b.width, max(1, b.height-1))
	stats.ViewportLines = len(viewport)
	stats.DroppedLines = len(lines) - len(viewport)

	if len(overlays) > 0 {
		compositeStart := time.Now()
		viewport = overlay.Composite(viewport, overlays, b.width)
		stats.CompositeTime = time.Since(compositeStart)
	}
	rows := ansitext.TotalVisualRows(viewport, b.width)
	stats.VisualRows = rows

	diffStart := time.Now()
	for i := range max(len(viewport), len(b.prevLines)) {
		if i < len(viewport) && i < len(b.prevLines) && b.sameLine(viewport[i], b.prevLines[i]) {
			stats.CacheHits++
			continue
		}
		if stats.FirstChangedLine == -1 {
			stats.FirstChangedLine = i
		}
		stats.LastChangedLine = i
	}
	if stats.FirstChangedLine == -1 && !b.forceNext {
		stats.DiffTime = time.Since(diffStart)
		stats.Skipped = true
		return false, nil
	}

	cursorOffsetFromEnd = min(max(0, cursorOffsetFromEnd), max(0, rows-1))

	var buf strings.Builder
	if b.syncOutput {
		buf.WriteString(syncBegin)
	}
	stats.MoveUp = b.writeMoveToTop(&buf, b.lastCursorOffset)
	buf.WriteString(clearBelow)
	for i, line := range viewport {
		if i > 0 {
			buf.WriteString("\r\n")
		}
		buf.WriteString(line)
	}
	if cursorOffsetFromEnd > 0 {
		fmt.Fprintf(&buf, "\x1b[%dA", cursorOffsetFromEnd)
	}
	if b.syncOutput {
		buf.WriteString(syncEnd)
	}
	stats.DiffTime = time.Since(diffStart)
	stats.BytesWritten = buf.Len()
	stats.LinesRepainted = len(viewport)

	writeStart := time.Now()
	err := b.write(buf.String())
	stats.WriteTime = time.Since(writeStart)
	if err != nil {
		b.forceNext = true
		return false, err
	}

	b.prevLines = viewport
	b.prevRows = rows
	b.lastCursorOffset = cursorOffsetFromEnd
	b.forceNext = false
	b.frames++
	return true, nil
}

// writeMoveToTop moves the cursor from where the last frame left it to
// column zero of that frame's first row. It returns the number of rows
// moved.
func (b *Buffer) writeMoveToTop(buf *strings.Builder, cursorOffsetFromEnd int) int {
	up := max(0, b.prevRows-1-cursorOffsetFromEnd)
	if up > 0 {
		fmt.Fprintf(buf, "\x1b[%dA", up)
	}
	buf.WriteString("\r")
	return up
}

func (b *Buffer) sameLine(a, c string) bool {
	if b.styleSensitive {
		return a == c
	}
	return a == c || ansitext.StripANSI(a) == ansitext.StripANSI(c)
}

func (b *Buffer) write(s string) error {
	if _, err := io.WriteString(b.w, s); err != nil {
		return errors.Wrap(err, "write frame")
	}
	if f, ok := b.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return errors.Wrap(err, "flush frame")
		}
	}
	return nil
}

// ForceRedraw makes the next Render write even if nothing changed. The
// cursor position of the last frame is kept so the redraw still lands on
// top of it.
func (b *Buffer) ForceRedraw() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prevLines = nil
	b.forceNext = true
}

// Clear erases the last frame and forgets it, leaving the cursor where the
// frame began. Used when tearing down a session.
func (b *Buffer) Clear(cursorOffsetFromEnd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf strings.Builder
	if b.syncOutput {
		buf.WriteString(syncBegin)
	}
	b.writeMoveToTop(&buf, max(0, cursorOffsetFromEnd))
	buf.WriteString(clearBelow)
	if b.syncOutput {
		buf.WriteString(syncEnd)
	}
	if err := b.write(buf.String()); err != nil {
		return err
	}
	b.reset()
	return nil
}

// RenderFullscreen bypasses diffing: it homes the cursor, clears the screen
// and writes content as is. The diff state is discarded.
func (b *Buffer) RenderFullscreen(content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf strings.Builder
	if b.syncOutput {
		buf.WriteString(syncBegin)
	}
	buf.WriteString(clearScreen)
	buf.WriteString(strings.Join(splitLines(content), "\r\n"))
	if b.syncOutput {
		buf.WriteString(syncEnd)
	}
	if err := b.write(buf.String()); err != nil {
		return err
	}
	b.reset()
	b.frames++
	return nil
}

// Resize records a new terminal size and forces a redraw. Terminals reflow
// existing lines on width changes, so the previous frame's row count is
// recomputed at the new width.
func (b *Buffer) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width != b.width && len(b.prevLines) > 0 {
		b.prevRows = ansitext.TotalVisualRows(b.prevLines, width)
		b.lastCursorOffset = min(b.lastCursorOffset, max(0, b.prevRows-1))
	}
	slog.Debug("output resized", "width", width, "height", height, "prevRows", b.prevRows)
	b.width = width
	b.height = height
	b.prevLines = nil
	b.forceNext = true
}

// SetCursor moves the hardware cursor to col on the current row and shows
// or hides it.
func (b *Buffer) SetCursor(col int, visible bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf strings.Builder
	buf.WriteString("\r")
	if col > 0 {
		fmt.Fprintf(&buf, "\x1b[%dC", col)
	}
	if visible {
		buf.WriteString(showCursor)
	} else {
		buf.WriteString(hideCursor)
	}
	return b.write(buf.String())
}

func (b *Buffer) reset() {
	b.prevLines = nil
	b.prevRows = 0
	b.lastCursorOffset = 0
	b.forceNext = false
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// isBlank reports whether line has no visible text.
func isBlank(line string) bool {
	return strings.TrimSpace(ansitext.StripANSI(line)) == ""
}

// collapseBlankRuns keeps only the first line of every run of blank lines.
func collapseBlankRuns(lines []string) []string {
	out := lines[:0:0]
	prevBlank := false
	for _, l := range lines {
		blank := isBlank(l)
		if blank && prevBlank {
			continue
		}
		out = append(out, l)
		prevBlank = blank
	}
	return out
}

// clampViewport returns the longest suffix of lines that fits in budget
// visual rows. The last line is always kept, even if it alone is taller
// than the budget.
func clampViewport(lines []string, width, budget int) []string {
	start := len(lines)
	rows := 0
	for i := len(lines) - 1; i >= 0; i-- {
		r := ansitext.VisualRows(lines[i], width)
		if rows+r > budget && start < len(lines) {
			break
		}
		rows += r
		start = i
	}
	return lines[start:]
}
