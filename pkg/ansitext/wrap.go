package ansitext

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/vito/oil/pkg/node"
)

// Span is a run of plain text with the escape sequences that open and close
// its style.
type Span struct {
	Text  string
	Open  string
	Close string
}

// StyledSpan builds a Span drawn in st.
func StyledSpan(text string, st node.Style) Span {
	open, close := st.Codes()
	return Span{Text: text, Open: open, Close: close}
}

type cellKind int

const (
	cellText cellKind = iota
	cellSpace
	cellEscape
	cellNewline
)

// cell is one grapheme cluster, escape sequence or line break of the source.
type cell struct {
	start, end int
	width      int
	kind       cellKind
}

func splitCells(s string) []cell {
	cells := make([]cell, 0, len(s))
	for i := 0; i < len(s); {
		switch {
		case s[i] == esc:
			n := EscapeLen(s[i:])
			cells = append(cells, cell{start: i, end: i + n, kind: cellEscape})
			i += n
			continue
		case s[i] == bel:
			cells = append(cells, cell{start: i, end: i + 1, kind: cellEscape})
			i++
			continue
		case s[i] == '\n':
			cells = append(cells, cell{start: i, end: i + 1, kind: cellNewline})
			i++
			continue
		case s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n':
			cells = append(cells, cell{start: i, end: i + 2, kind: cellNewline})
			i += 2
			continue
		case s[i] == ' ' || s[i] == '\t':
			cells = append(cells, cell{start: i, end: i + 1, width: 1, kind: cellSpace})
			i++
			continue
		}
		cluster, w := ansi.FirstGraphemeCluster(s[i:], ansi.GraphemeWidth)
		if len(cluster) == 0 {
			cluster = s[i : i+1]
			w = 0
		}
		cells = append(cells, cell{start: i, end: i + len(cluster), width: max(0, w), kind: cellText})
		i += len(cluster)
	}
	return cells
}

// wrapRanges breaks cells into lines of at most width columns and returns
// each line as a half-open byte range into the source. Breaks happen after
// whitespace, which stays at the end of the line it follows as far as it
// fits; whitespace past width at a break is dropped. Words wider than width
// are split between grapheme clusters. Newline cells always break and belong
// to no line. width <= 0 only breaks at newlines.
func wrapRanges(s string, width int) [][2]int {
	cells := splitCells(s)

	var lines [][2]int
	lineStart := 0
	// fitEnd is the end of the cells that fit on the current line.
	fitEnd := 0
	lineW := 0
	emit := func(next int) {
		lines = append(lines, cellRange(cells, lineStart, fitEnd, s))
		lineStart = next
		fitEnd = next
		lineW = 0
	}

	for i := 0; i < len(cells); {
		c := cells[i]
		switch {
		case c.kind == cellNewline:
			emit(i + 1)
			i++
			continue
		case c.kind == cellSpace:
			if width <= 0 || lineW+c.width <= width {
				lineW += c.width
				fitEnd = i + 1
			}
			i++
			continue
		case c.kind == cellEscape && !escapeStartsWord(cells, i):
			if fitEnd == i {
				fitEnd = i + 1
			}
			i++
			continue
		}

		// A word: text cells plus any escapes inside or directly before it.
		j := i
		wordW := 0
		for j < len(cells) && (cells[j].kind == cellText || cells[j].kind == cellEscape) {
			wordW += cells[j].width
			j++
		}

		if fitEnd == i && (width <= 0 || lineW+wordW <= width) {
			lineW += wordW
			fitEnd = j
			i = j
			continue
		}
		if lineW > 0 || fitEnd < i {
			emit(i)
			if wordW <= width {
				lineW = wordW
				fitEnd = j
				i = j
				continue
			}
		}
		for k := i; k < j; k++ {
			w := cells[k].width
			if lineW > 0 && lineW+w > width {
				emit(k)
			}
			lineW += w
			fitEnd = k + 1
		}
		i = j
	}
	lines = append(lines, cellRange(cells, lineStart, fitEnd, s))
	return lines
}

func escapeStartsWord(cells []cell, i int) bool {
	for ; i < len(cells); i++ {
		switch cells[i].kind {
		case cellEscape:
			continue
		case cellText:
			return true
		default:
			return false
		}
	}
	return false
}

func cellRange(cells []cell, from, to int, s string) [2]int {
	if from >= to {
		pos := len(s)
		if from < len(cells) {
			pos = cells[from].start
		}
		return [2]int{pos, pos}
	}
	return [2]int{cells[from].start, cells[to-1].end}
}

// WrapText wraps s to width columns. Escape sequences are kept and count as
// zero width. The result always has at least one line.
func WrapText(s string, width int) []string {
	ranges := wrapRanges(s, width)
	lines := make([]string, len(ranges))
	for i, r := range ranges {
		lines[i] = s[r[0]:r[1]]
	}
	return lines
}

// WrapStyledText wraps the concatenated text of spans to width columns, then
// re-applies each span's open and close codes to exactly the part of every
// line that falls within it. A style never carries over a line break.
func WrapStyledText(spans []Span, width int) []string {
	var plain strings.Builder
	bounds := make([][2]int, len(spans))
	for i, sp := range spans {
		bounds[i][0] = plain.Len()
		plain.WriteString(sp.Text)
		bounds[i][1] = plain.Len()
	}
	text := plain.String()

	ranges := wrapRanges(text, width)
	lines := make([]string, len(ranges))
	var b strings.Builder
	for li, r := range ranges {
		b.Reset()
		for si, sp := range spans {
			lo := max(r[0], bounds[si][0])
			hi := min(r[1], bounds[si][1])
			if lo >= hi {
				continue
			}
			b.WriteString(sp.Open)
			b.WriteString(text[lo:hi])
			b.WriteString(sp.Close)
		}
		lines[li] = b.String()
	}
	return lines
}
