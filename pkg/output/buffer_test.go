package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/oil/pkg/overlay"
)

// recorder stands in for the terminal. It keeps each flushed frame apart so
// tests can inspect exactly what one Render call wrote.
type recorder struct {
	pending bytes.Buffer
	frames  []string
	flushes int
}

func (r *recorder) Write(p []byte) (int, error) {
	return r.pending.Write(p)
}

func (r *recorder) Flush() error {
	r.flushes++
	r.frames = append(r.frames, r.pending.String())
	r.pending.Reset()
	return nil
}

func (r *recorder) last() string {
	if len(r.frames) == 0 {
		return ""
	}
	return r.frames[len(r.frames)-1]
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d", i)
	}
	return strings.Join(lines, "\n")
}

func TestRenderIsIdempotent(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)
	overlays := []overlay.Overlay{{Lines: []string{"pop"}, Anchor: overlay.AnchorTopRight}}

	wrote, err := buf.Render("hello\nworld", 0, overlays)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = buf.Render("hello\nworld", 0, overlays)
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Len(t, rec.frames, 1)
	assert.True(t, buf.LastStats().Skipped)
}

func TestRenderWrapsFrameInSyncBracket(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("one\ntwo\nthree", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?2026h\r\x1b[Jone\r\ntwo\r\nthree\x1b[?2026l", rec.last())
	assert.Equal(t, 1, rec.flushes)
}

func TestRenderWithoutSyncOutput(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10, WithSyncOutput(false))
	_, err := buf.Render("one", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "\r\x1b[Jone", rec.last())
}

func TestRenderMovesUpOverPreviousFrame(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("one\ntwo\nthree", 0, nil)
	require.NoError(t, err)
	_, err = buf.Render("one\ntwo\nTHREE", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?2026h\x1b[2A\r\x1b[Jone\r\ntwo\r\nTHREE\x1b[?2026l", rec.last())

	stats := buf.LastStats()
	assert.Equal(t, 2, stats.MoveUp)
	assert.Equal(t, 2, stats.FirstChangedLine)
	assert.Equal(t, 2, stats.LastChangedLine)
	assert.Equal(t, 2, stats.CacheHits)
}

func TestRenderCursorOffsetIsRemembered(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("a\nb\nc", 1, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.last(), "c\x1b[1A\x1b[?2026l"), "%q", rec.last())

	// The cursor sits one row above the bottom, so only one row up reaches
	// the top of the frame.
	_, err = buf.Render("a\nb\nd", 0, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.last(), "\x1b[?2026h\x1b[1A\r\x1b[J"), "%q", rec.last())
}

func TestRenderCountsWrappedRows(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 5, 10)

	_, err := buf.Render("abcdefghij\nx", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.LastStats().VisualRows)

	_, err = buf.Render("abcdefghij\ny", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.LastStats().MoveUp)
}

func TestRenderClampsToTrailingViewport(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 9)

	_, err := buf.Render(numbered(20), 0, nil)
	require.NoError(t, err)

	want := strings.Split(numbered(20), "\n")[12:]
	assert.Equal(t, want, buf.Lines())
	assert.NotContains(t, rec.last(), "line11")
	assert.Equal(t, 12, buf.LastStats().DroppedLines)
}

func TestRenderKeepsOversizedLastLine(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 5, 3)

	_, err := buf.Render("a\n"+strings.Repeat("x", 15), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("x", 15)}, buf.Lines())
}

func TestRenderCollapsesBlankRuns(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("x\n\n\n\ny", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "", "y"}, buf.Lines())

	_, err = buf.Render("x\n \n\t\n\x1b[0m\ny\r\n\r\nz", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", " ", "y", "", "z"}, buf.Lines())
}

func TestRenderIgnoresStyleOnlyChanges(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("\x1b[31mhello\x1b[0m", 0, nil)
	require.NoError(t, err)
	wrote, err := buf.Render("\x1b[32mhello\x1b[0m", 0, nil)
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestRenderStyleSensitiveDiff(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10, WithStyleSensitiveDiff())

	_, err := buf.Render("\x1b[31mhello\x1b[0m", 0, nil)
	require.NoError(t, err)
	wrote, err := buf.Render("\x1b[32mhello\x1b[0m", 0, nil)
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestForceRedraw(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("a\nb", 0, nil)
	require.NoError(t, err)

	buf.ForceRedraw()
	wrote, err := buf.Render("a\nb", 0, nil)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.True(t, buf.LastStats().Forced)
	// The redraw lands on top of the old frame.
	assert.Equal(t, "\x1b[?2026h\x1b[1A\r\x1b[Ja\r\nb\x1b[?2026l", rec.last())

	wrote, err = buf.Render("a\nb", 0, nil)
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestClear(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("a\nb\nc", 0, nil)
	require.NoError(t, err)
	require.NoError(t, buf.Clear(0))
	assert.Equal(t, "\x1b[?2026h\x1b[2A\r\x1b[J\x1b[?2026l", rec.last())
	assert.Empty(t, buf.Lines())

	// Nothing left to move over.
	_, err = buf.Render("new", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?2026h\r\x1b[Jnew\x1b[?2026l", rec.last())
}

func TestRenderFullscreen(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	_, err := buf.Render("a\nb", 0, nil)
	require.NoError(t, err)
	require.NoError(t, buf.RenderFullscreen("full\nscreen"))
	assert.Equal(t, "\x1b[?2026h\x1b[H\x1b[2Jfull\r\nscreen\x1b[?2026l", rec.last())

	wrote, err := buf.Render("a\nb", 0, nil)
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestResizeForcesRedraw(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 10, 10)

	_, err := buf.Render("0123456789", 0, nil)
	require.NoError(t, err)

	buf.Resize(5, 10)
	w, h := buf.Size()
	assert.Equal(t, 5, w)
	assert.Equal(t, 10, h)

	wrote, err := buf.Render("0123456789", 0, nil)
	require.NoError(t, err)
	assert.True(t, wrote)
	// The old line reflowed onto two rows.
	assert.Equal(t, 1, buf.LastStats().MoveUp)
}

func TestSetCursor(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 40, 10)

	require.NoError(t, buf.SetCursor(4, true))
	assert.Equal(t, "\r\x1b[4C\x1b[?25h", rec.last())
	require.NoError(t, buf.SetCursor(0, false))
	assert.Equal(t, "\r\x1b[?25l", rec.last())
}

func TestRenderCompositesOverlays(t *testing.T) {
	rec := &recorder{}
	buf := New(rec, 10, 10)

	_, err := buf.Render("aaaa\nbbbb\ncccc", 0, []overlay.Overlay{
		{Lines: []string{"XY"}, Anchor: overlay.AnchorAbsolute, Row: 1, Col: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa", "bXYb", "cccc"}, buf.Lines())
	assert.Equal(t, 1, buf.LastStats().OverlayCount)
}

type failingWriter struct{}

var errBrokenPipe = errors.New("broken pipe")

func (failingWriter) Write([]byte) (int, error) { return 0, errBrokenPipe }

func TestRenderPropagatesWriteErrors(t *testing.T) {
	buf := New(failingWriter{}, 40, 10)

	wrote, err := buf.Render("a", 0, nil)
	assert.False(t, wrote)
	require.ErrorIs(t, err, errBrokenPipe)
	assert.Contains(t, err.Error(), "write frame")
	assert.ErrorIs(t, buf.Clear(0), errBrokenPipe)
	assert.Equal(t, 0, buf.Frames())
}

func TestDebugWriterEmitsJSONL(t *testing.T) {
	rec := &recorder{}
	var log bytes.Buffer
	buf := New(rec, 40, 10, WithDebugWriter(&log))

	for _, content := range []string{"a", "a", "b"} {
		_, err := buf.Render(content, 0, nil)
		require.NoError(t, err)
	}

	var records []StatsRecord
	scanner := bufio.NewScanner(&log)
	for scanner.Scan() {
		var rec StatsRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)
	assert.False(t, records[0].Skipped)
	assert.True(t, records[1].Skipped)
	assert.Equal(t, 0, records[2].FirstChanged)
	assert.Equal(t, 1, records[2].LinesRepainted)
	assert.Positive(t, records[2].BytesWritten)
}

func TestCollapseBlankRuns(t *testing.T) {
	assert.Equal(t, []string{""}, collapseBlankRuns([]string{"", "", ""}))
	assert.Equal(t, []string{"a", "", "b", ""}, collapseBlankRuns([]string{"a", "", "", "b", "", ""}))
}

func TestClampViewport(t *testing.T) {
	lines := []string{"aa", "bbbb", "c"}
	assert.Equal(t, []string{"bbbb", "c"}, clampViewport(lines, 2, 3))
	assert.Equal(t, []string{"c"}, clampViewport(lines, 2, 2))
	assert.Equal(t, lines, clampViewport(lines, 0, 3))
	assert.Empty(t, clampViewport(nil, 10, 5))
}
