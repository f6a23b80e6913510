package output

import (
	"encoding/json"
	"io"
	"time"
)

// RenderStats captures what a single Render call did.
type RenderStats struct {
	// CompositeTime is how long overlay compositing took. Zero when there
	// are no overlays.
	CompositeTime time.Duration

	// DiffTime is how long comparing against the previous frame and
	// building the escape sequences took.
	DiffTime time.Duration

	// WriteTime is how long the terminal write and flush took.
	WriteTime time.Duration

	// TotalTime is the wall-clock duration of the whole call.
	TotalTime time.Duration

	// TotalLines is the number of lines after blank-line collapsing.
	TotalLines int

	// ViewportLines is the number of lines that fit in the viewport.
	ViewportLines int

	// DroppedLines is how many older lines were clamped off the top.
	DroppedLines int

	// VisualRows is the number of terminal rows the viewport occupies.
	VisualRows int

	// LinesRepainted is the number of lines written to the terminal.
	LinesRepainted int

	// CacheHits is the number of lines that matched the previous frame.
	CacheHits int

	// Skipped is true when the frame matched the previous one and nothing
	// was written.
	Skipped bool

	// Forced is true when a redraw was requested regardless of content.
	Forced bool

	// OverlayCount is the number of overlays composited.
	OverlayCount int

	// MoveUp is how many rows the cursor moved up before clearing.
	MoveUp int

	// BytesWritten is the number of bytes sent to the terminal. Large values
	// indicate potential slowness over SSH or on slow terminals.
	BytesWritten int

	// FirstChangedLine is the first viewport line that differed from the
	// previous frame, or -1 if nothing changed.
	FirstChangedLine int

	// LastChangedLine is the last viewport line that differed from the
	// previous frame, or -1 if nothing changed.
	LastChangedLine int
}

// StatsRecord is the JSONL record written by the debug writer.
type StatsRecord struct {
	Ts             int64 `json:"ts"`
	TotalUs        int64 `json:"total_us"`
	CompositeUs    int64 `json:"composite_us"`
	DiffUs         int64 `json:"diff_us"`
	WriteUs        int64 `json:"write_us"`
	TotalLines     int   `json:"total_lines"`
	ViewportLines  int   `json:"viewport_lines"`
	DroppedLines   int   `json:"dropped_lines"`
	VisualRows     int   `json:"visual_rows"`
	LinesRepainted int   `json:"lines_repainted"`
	CacheHits      int   `json:"cache_hits"`
	Skipped        bool  `json:"skipped"`
	Forced         bool  `json:"forced"`
	OverlayCount   int   `json:"overlay_count"`
	MoveUp         int   `json:"move_up"`
	BytesWritten   int   `json:"bytes_written"`
	FirstChanged   int   `json:"first_changed"`
	LastChanged    int   `json:"last_changed"`
}

// Record converts s to its JSONL form.
func (s RenderStats) Record(ts time.Time) StatsRecord {
	return StatsRecord{
		Ts:             ts.UnixMilli(),
		TotalUs:        s.TotalTime.Microseconds(),
		CompositeUs:    s.CompositeTime.Microseconds(),
		DiffUs:         s.DiffTime.Microseconds(),
		WriteUs:        s.WriteTime.Microseconds(),
		TotalLines:     s.TotalLines,
		ViewportLines:  s.ViewportLines,
		DroppedLines:   s.DroppedLines,
		VisualRows:     s.VisualRows,
		LinesRepainted: s.LinesRepainted,
		CacheHits:      s.CacheHits,
		Skipped:        s.Skipped,
		Forced:         s.Forced,
		OverlayCount:   s.OverlayCount,
		MoveUp:         s.MoveUp,
		BytesWritten:   s.BytesWritten,
		FirstChanged:   s.FirstChangedLine,
		LastChanged:    s.LastChangedLine,
	}
}

func writeStats(w io.Writer, stats RenderStats) {
	data, _ := json.Marshal(stats.Record(time.Now()))
	data = append(data, '\n')
	w.Write(data) //nolint:errcheck
}
