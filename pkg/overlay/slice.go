package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/vito/oil/pkg/ansitext"
)

// segmentReset resets all SGR attributes and cancels any active hyperlink.
const segmentReset = "\x1b[0m\x1b]8;;\x07"

// SliceByColumn extracts length visible columns of line starting at column
// startCol. Escape sequences seen before startCol are carried into the result
// so the slice keeps the style that was active there. A wide character cut
// by either edge of the range is replaced by spaces, so the result is never
// wider than length and never shifts later columns.
func SliceByColumn(line string, startCol, length int) string {
	if length <= 0 {
		return ""
	}
	startCol = max(0, startCol)

	var (
		out        strings.Builder
		pending    strings.Builder
		col        int
		collected  int
		collecting bool
	)

	for i := 0; i < len(line) && collected < length; {
		if line[i] == '\x1b' {
			n := ansitext.EscapeLen(line[i:])
			if collecting {
				out.WriteString(line[i : i+n])
			} else {
				pending.WriteString(line[i : i+n])
			}
			i += n
			continue
		}

		cluster, w := ansi.FirstGraphemeCluster(line[i:], ansi.GraphemeWidth)
		if len(cluster) == 0 {
			cluster, w = line[i:i+1], 0
		}
		i += len(cluster)

		if !collecting {
			if col+w <= startCol && (w > 0 || col < startCol) {
				col += w
				continue
			}
			collecting = true
			out.WriteString(pending.String())
			if col < startCol {
				pad := min(col+w-startCol, length)
				out.WriteString(strings.Repeat(" ", pad))
				collected += pad
				col += w
				continue
			}
		}

		if collected+w > length {
			out.WriteString(strings.Repeat(" ", length-collected))
			collected = length
			break
		}
		out.WriteString(cluster)
		collected += w
		col += w
	}

	return out.String()
}

// CompositeLineAt writes over on top of base starting at column col,
// replacing the cells it covers. over is clipped to w columns and the whole
// line to termW columns. base is padded with spaces if it ends before col.
func CompositeLineAt(base, over string, col, w, termW int) string {
	col = max(0, col)
	w = min(w, termW-col)
	if w <= 0 {
		return ansitext.TruncateToWidth(base, termW, false)
	}

	over = ansitext.TruncateToWidth(over, w, false)
	overW := ansitext.VisibleWidth(over)

	left := SliceByColumn(base, 0, col)
	leftW := ansitext.VisibleWidth(left)

	var b strings.Builder
	b.WriteString(left)
	if hasEscape(left) {
		b.WriteString(segmentReset)
	}
	if leftW < col {
		b.WriteString(strings.Repeat(" ", col-leftW))
	}
	b.WriteString(over)
	if hasEscape(over) {
		b.WriteString(segmentReset)
	}

	end := col + overW
	if rest := termW - end; rest > 0 && ansitext.VisibleWidth(base) > end {
		b.WriteString(SliceByColumn(base, end, rest))
	}
	return b.String()
}

func hasEscape(s string) bool {
	return strings.IndexByte(s, '\x1b') >= 0
}
