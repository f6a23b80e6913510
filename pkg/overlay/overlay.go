// Package overlay composites anchored blocks of lines, such as completion
// popups, onto the rendered viewport before it reaches the diff renderer.
package overlay

import (
	"strings"

	"github.com/vito/oil/pkg/ansitext"
)

// Anchor specifies where an overlay is positioned relative to the viewport.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTopLeft
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
	AnchorTopCenter
	AnchorBottomCenter
	AnchorLeftCenter
	AnchorRightCenter

	// AnchorAboveRow places the overlay's last line just above Row, starting
	// at Col. It flips below Row if there is no room above.
	AnchorAboveRow
	// AnchorBelowRow places the overlay's first line just below Row,
	// starting at Col. It flips above Row if there is no room below.
	AnchorBelowRow
	// AnchorAbsolute places the overlay's top-left corner at Row, Col.
	AnchorAbsolute
)

// Margin keeps overlays away from the viewport edges.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Overlay is a block of lines drawn over the viewport. Overlays are built by
// the host for each frame.
type Overlay struct {
	Lines  []string
	Anchor Anchor

	// Row and Col are viewport coordinates used by the row-relative and
	// absolute anchors, e.g. the cursor position.
	Row, Col int

	OffsetX, OffsetY int

	// Width is the number of columns the overlay covers. Zero means the
	// width of its widest line.
	Width int

	Margin Margin
}

// Composite draws overlays onto a copy of base, in order, so later overlays
// cover earlier ones. Cells under an overlay are replaced, not blended.
// Overlay rows that fall outside base are dropped and every line is clipped
// to width columns.
func Composite(base []string, overlays []Overlay, width int) []string {
	result := make([]string, len(base))
	copy(result, base)
	if len(overlays) == 0 || len(base) == 0 {
		return result
	}
	for _, o := range overlays {
		row, col, w := Place(o, len(base), width)
		for i, line := range o.Lines {
			r := row + i
			if r < 0 || r >= len(result) {
				continue
			}
			if lw := ansitext.VisibleWidth(line); lw < w {
				line += strings.Repeat(" ", w-lw)
			}
			result[r] = CompositeLineAt(result[r], line, col, w, width)
		}
	}
	return result
}

// Place resolves the top-left corner and width of o within a viewport of
// viewH rows and termW columns.
func Place(o Overlay, viewH, termW int) (row, col, width int) {
	mTop := max(0, o.Margin.Top)
	mRight := max(0, o.Margin.Right)
	mBottom := max(0, o.Margin.Bottom)
	mLeft := max(0, o.Margin.Left)

	availW := max(1, termW-mLeft-mRight)
	availH := max(0, viewH-mTop-mBottom)

	width = o.Width
	if width <= 0 {
		for _, l := range o.Lines {
			width = max(width, ansitext.VisibleWidth(l))
		}
	}
	width = clamp(width, 0, availW)
	h := len(o.Lines)

	switch o.Anchor {
	case AnchorAboveRow:
		row = o.Row - h
		if row < mTop && o.Row+1+h <= viewH-mBottom {
			row = o.Row + 1
		}
		col = o.Col
	case AnchorBelowRow:
		row = o.Row + 1
		if row+h > viewH-mBottom && o.Row-h >= mTop {
			row = o.Row - h
		}
		col = o.Col
	case AnchorAbsolute:
		row, col = o.Row, o.Col
	default:
		row = anchorRow(o.Anchor, h, availH, mTop)
		col = anchorCol(o.Anchor, width, availW, mLeft)
	}

	row += o.OffsetY
	col += o.OffsetX

	row = clamp(row, mTop, viewH-mBottom-h)
	col = clamp(col, mLeft, termW-mRight-width)
	return row, col, width
}

func anchorRow(a Anchor, h, availH, mTop int) int {
	switch a {
	case AnchorTopLeft, AnchorTopCenter, AnchorTopRight:
		return mTop
	case AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight:
		return mTop + availH - h
	default: // center variants
		return mTop + (availH-h)/2
	}
}

func anchorCol(a Anchor, w, availW, mLeft int) int {
	switch a {
	case AnchorTopLeft, AnchorLeftCenter, AnchorBottomLeft:
		return mLeft
	case AnchorTopRight, AnchorRightCenter, AnchorBottomRight:
		return mLeft + availW - w
	default: // center variants
		return mLeft + (availW-w)/2
	}
}

// clamp bounds v to [lo, hi], preferring lo when the range is empty.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
