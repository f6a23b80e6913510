package layout

import (
	"strings"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/node"
)

// height returns the outer height of it (margin included) when given w
// columns inside a parent laid out in parentDir. A fixed box pins its height
// only when the parent is a column, since Size applies along the parent's
// main axis.
func (s *solver) height(it *item, w int, parentDir node.Direction) int {
	w = max(0, w)
	key := memoKey{it.idx, w, parentDir}
	if h, ok := s.memo[key]; ok {
		return h
	}
	h := max(0, s.measureHeight(it, w, parentDir))
	s.memo[key] = h
	return h
}

func (s *solver) measureHeight(it *item, w int, parentDir node.Direction) int {
	switch n := it.n.(type) {
	case node.Empty, node.Overlay:
		return 0

	case node.Text:
		if n.Wrap == node.WrapTruncate {
			return strings.Count(n.Content, "\n") + 1
		}
		return len(ansitext.WrapText(n.Content, w))

	case node.Input, node.Spinner:
		return 1

	case node.Popup:
		return n.VisibleRows()

	case node.Raw:
		return n.DisplayHeight

	case node.Fragment, node.Static:
		return s.columnHeight(it.children, w, 0)

	case node.Focusable, node.ErrorBoundary:
		if len(it.children) == 0 {
			return 0
		}
		return s.height(it.children[0], w, parentDir)

	case node.Box:
		horiz, vert := insets(n)
		if parentDir == node.DirColumn && n.Size.Kind == node.SizeFixed {
			return max(0, n.Size.N) + n.Margin.Vertical()
		}
		inner := max(0, w-horiz)
		if n.Direction == node.DirRow {
			widths := s.rowWidths(it.children, inner, max(0, n.Gap.Column))
			tallest := 0
			for i, c := range it.children {
				if takesSpace(c.n) {
					tallest = max(tallest, s.height(c, widths[i], node.DirRow))
				}
			}
			return tallest + vert
		}
		return s.columnHeight(it.children, inner, max(0, n.Gap.Row)) + vert
	}
	return 0
}

func (s *solver) columnHeight(children []*item, w, gap int) int {
	total := 0
	count := 0
	for _, c := range children {
		if !takesSpace(c.n) {
			continue
		}
		total += s.height(c, w, node.DirColumn)
		count++
	}
	if count > 1 {
		total += gap * (count - 1)
	}
	return total
}

// width returns the intrinsic outer width of it, at most avail. Flex boxes
// have no intrinsic width of their own beyond their insets.
func (s *solver) width(it *item, avail int) int {
	avail = max(0, avail)
	return min(avail, max(0, s.measureWidth(it, avail)))
}

func (s *solver) measureWidth(it *item, avail int) int {
	switch n := it.n.(type) {
	case node.Empty, node.Overlay:
		return 0

	case node.Text:
		widest := 0
		for line := range strings.SplitSeq(n.Content, "\n") {
			widest = max(widest, ansitext.VisibleWidth(line))
		}
		return widest

	case node.Input:
		// One extra cell for the cursor when it sits past the end.
		return max(ansitext.VisibleWidth(n.Value), ansitext.VisibleWidth(n.Placeholder)) + 1

	case node.Spinner:
		w := ansitext.VisibleWidth(n.CurrentFrame())
		if n.Label != "" {
			w += 1 + ansitext.VisibleWidth(n.Label)
		}
		return w

	case node.Popup:
		return avail

	case node.Raw:
		return n.DisplayWidth

	case node.Fragment, node.Static:
		widest := 0
		for _, c := range it.children {
			widest = max(widest, s.width(c, avail))
		}
		return widest

	case node.Focusable, node.ErrorBoundary:
		if len(it.children) == 0 {
			return 0
		}
		return s.width(it.children[0], avail)

	case node.Box:
		horiz, _ := insets(n)
		if n.Size.Kind == node.SizeFixed {
			return max(0, n.Size.N) + n.Margin.Horizontal()
		}
		inner := max(0, avail-horiz)
		content := 0
		if n.Direction == node.DirRow {
			count := 0
			for _, c := range it.children {
				if !takesSpace(c.n) || isFlex(c) {
					continue
				}
				content += s.width(c, max(0, inner-content))
				count++
			}
			if count > 1 {
				content += max(0, n.Gap.Column) * (count - 1)
			}
		} else {
			for _, c := range it.children {
				if !isFlex(c) {
					content = max(content, s.width(c, inner))
				}
			}
		}
		return content + horiz
	}
	return 0
}
