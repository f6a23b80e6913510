// Package layout computes where each node of a tree goes. It is a small
// flexbox-style solver: boxes stack their children along a main axis, fixed
// children keep their size, content children take their intrinsic size and
// flex children share whatever space is left.
//
// Width always fills the parent; only heights are intrinsic. This keeps text
// wrapping defined against a known column budget.
package layout

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/node"
)

// MaxDepth bounds nesting. Deeper subtrees are laid out as zero-size and the
// layout is marked degraded.
const MaxDepth = 256

// ErrDegraded is wrapped by Layout.Degraded when the solver had to fall back
// to a best-effort result.
var ErrDegraded = errors.New("layout degraded")

// Rect is a computed position and size in terminal cells.
type Rect struct {
	X, Y, Width, Height float64
}

// Cells returns r rounded down to whole cells.
func (r Rect) Cells() (x, y, w, h int) {
	return int(math.Floor(r.X)), int(math.Floor(r.Y)), int(math.Floor(r.Width)), int(math.Floor(r.Height))
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Layout is the result of Compute.
type Layout struct {
	// Rects maps every node's pre-order index to its rectangle. Margins are
	// outside the rectangle; borders and padding are inside it.
	Rects map[node.Index]Rect

	// Height is the number of rows the whole tree occupies, including the
	// root's margin.
	Height int

	// Degraded is non-nil if the solver recovered from a failure. The rects
	// are still usable; any it could not compute are zero.
	Degraded error
}

// Rect returns the rectangle for idx.
func (l *Layout) Rect(idx node.Index) (Rect, bool) {
	r, ok := l.Rects[idx]
	return r, ok
}

// Compute lays out root in a viewport of width columns and height rows. The
// root is as tall as its content unless it is a flex box, in which case it
// fills height. Compute never panics.
func Compute(root node.Node, width, height int) (l *Layout) {
	width = max(0, width)
	height = max(0, height)

	s := &solver{
		rects: map[node.Index]Rect{},
		memo:  map[memoKey]int{},
	}
	l = &Layout{Rects: s.rects}

	defer func() {
		if r := recover(); r != nil {
			s.degrade(errors.Errorf("recovered: %v", r))
		}
		for i := range node.Index(node.Count(root)) {
			if _, ok := s.rects[i]; !ok {
				s.rects[i] = Rect{}
			}
		}
		l.Degraded = s.degraded
	}()

	tree := s.build(root)
	h := s.height(tree, width, node.DirColumn)
	if b, ok := tree.n.(node.Box); ok && b.Size.Kind == node.SizeFlex && height > h {
		h = height
	}
	l.Height = h
	s.place(tree, 0, 0, width, h, node.DirColumn)
	return l
}

// item is a node with its pre-order index resolved.
type item struct {
	idx      node.Index
	n        node.Node
	children []*item
}

type memoKey struct {
	idx node.Index
	w   int
	dir node.Direction
}

type solver struct {
	rects    map[node.Index]Rect
	memo     map[memoKey]int
	degraded error
}

func (s *solver) degrade(err error) {
	if s.degraded != nil {
		return
	}
	s.degraded = errors.Wrap(ErrDegraded, err.Error())
	slog.Warn("layout degraded", "error", s.degraded)
}

func (s *solver) build(root node.Node) *item {
	next := node.Index(0)
	var build func(n node.Node, depth int) *item
	build = func(n node.Node, depth int) *item {
		if n == nil {
			n = node.Empty{}
		}
		it := &item{idx: next, n: n}
		next++
		kids := node.Children(n)
		if depth >= MaxDepth && len(kids) > 0 {
			s.degrade(errors.Errorf("nesting deeper than %d at node %d", MaxDepth, it.idx))
			for _, c := range kids {
				next += node.Index(node.Count(c))
			}
			return it
		}
		for _, c := range kids {
			it.children = append(it.children, build(c, depth+1))
		}
		return it
	}
	return build(root, 0)
}

// takesSpace reports whether n participates in gap and justify accounting.
func takesSpace(n node.Node) bool {
	switch n.(type) {
	case node.Empty, node.Overlay:
		return false
	}
	return true
}

func boxOf(it *item) (node.Box, bool) {
	b, ok := it.n.(node.Box)
	return b, ok
}

func flexWeight(it *item) int {
	if b, ok := boxOf(it); ok && b.Size.Kind == node.SizeFlex {
		return max(0, b.Size.N)
	}
	return 0
}

func isFlex(it *item) bool {
	b, ok := boxOf(it)
	return ok && b.Size.Kind == node.SizeFlex
}

// insets returns the horizontal and vertical space a box spends on its own
// margin, border and padding.
func insets(b node.Box) (horiz, vert int) {
	border := 2 * b.Border.Size()
	horiz = b.Margin.Horizontal() + b.Padding.Horizontal() + border
	vert = b.Margin.Vertical() + b.Padding.Vertical() + border
	return horiz, vert
}

func (s *solver) place(it *item, x, y, w, h int, parentDir node.Direction) {
	w = max(0, w)
	h = max(0, h)

	switch n := it.n.(type) {
	case node.Box:
		x += max(0, n.Margin.Left)
		y += max(0, n.Margin.Top)
		w = max(0, w-n.Margin.Horizontal())
		h = max(0, h-n.Margin.Vertical())
		s.rects[it.idx] = rect(x, y, w, h)

		inset := n.Border.Size()
		ix := x + inset + max(0, n.Padding.Left)
		iy := y + inset + max(0, n.Padding.Top)
		iw := max(0, w-2*inset-n.Padding.Horizontal())
		ih := max(0, h-2*inset-n.Padding.Vertical())
		if n.Direction == node.DirRow {
			s.layoutRow(it.children, ix, iy, iw, ih, max(0, n.Gap.Column), n.Justify, n.Align)
		} else {
			s.layoutColumn(it.children, ix, iy, iw, ih, max(0, n.Gap.Row), n.Justify)
		}

	case node.Fragment, node.Static:
		s.rects[it.idx] = rect(x, y, w, h)
		s.layoutColumn(it.children, x, y, w, h, 0, node.JustifyStart)

	case node.Focusable, node.ErrorBoundary:
		s.rects[it.idx] = rect(x, y, w, h)
		for _, c := range it.children {
			s.place(c, x, y, w, h, parentDir)
		}

	case node.Overlay:
		// Overlays are drawn apart from the flow; their content is laid out
		// in its own space with the overlay's origin at (0, 0).
		s.rects[it.idx] = rect(x, y, w, 0)
		for _, c := range it.children {
			s.place(c, 0, 0, w, s.height(c, w, node.DirColumn), node.DirColumn)
		}

	default:
		s.rects[it.idx] = rect(x, y, w, h)
	}
}

func rect(x, y, w, h int) Rect {
	return Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}
}

func (s *solver) layoutColumn(children []*item, x, y, w, h, gap int, justify node.Justify) {
	sizes := make([]int, len(children))
	used := 0
	count := 0
	totalWeight := 0
	for i, c := range children {
		if !takesSpace(c.n) {
			continue
		}
		sizes[i] = s.height(c, w, node.DirColumn)
		used += sizes[i]
		count++
		totalWeight += flexWeight(c)
	}
	if count > 1 {
		used += gap * (count - 1)
	}

	free := h - used
	if free > 0 && totalWeight > 0 {
		grow(children, sizes, free, totalWeight)
		free = 0
	}

	offsets := justifyOffsets(justify, max(0, free), count)
	cy := y
	k := 0
	for i, c := range children {
		if !takesSpace(c.n) {
			s.place(c, x, cy, w, 0, node.DirColumn)
			continue
		}
		cy += offsets[k]
		// Children past the bottom of a pinned box are clipped to what is
		// left of it.
		size := min(sizes[i], max(0, y+h-cy))
		s.place(c, x, cy, w, size, node.DirColumn)
		cy += size + gap
		k++
	}
}

func (s *solver) layoutRow(children []*item, x, y, w, h, gap int, justify node.Justify, align node.Align) {
	widths := s.rowWidths(children, w, gap)
	used := 0
	count := 0
	for i, c := range children {
		if takesSpace(c.n) {
			used += widths[i]
			count++
		}
	}
	if count > 1 {
		used += gap * (count - 1)
	}

	offsets := justifyOffsets(justify, max(0, w-used), count)
	cx := x
	k := 0
	for i, c := range children {
		if !takesSpace(c.n) {
			s.place(c, cx, y, 0, 0, node.DirRow)
			continue
		}
		cx += offsets[k]
		cw := widths[i]
		ch := min(h, s.height(c, cw, node.DirRow))
		cy := y
		switch align {
		case node.AlignStretch:
			ch = h
		case node.AlignCenter:
			cy += (h - ch) / 2
		case node.AlignEnd:
			cy += h - ch
		}
		s.place(c, cx, cy, cw, ch, node.DirRow)
		cx += cw + gap
		k++
	}
}

// rowWidths allocates outer widths to the children of a row: fixed children
// first, then content children in order from what is left, then flex
// children share the remainder by weight.
func (s *solver) rowWidths(children []*item, w, gap int) []int {
	widths := make([]int, len(children))
	count := 0
	for _, c := range children {
		if takesSpace(c.n) {
			count++
		}
	}
	remaining := w
	if count > 1 {
		remaining -= gap * (count - 1)
	}

	for i, c := range children {
		if b, ok := boxOf(c); ok && b.Size.Kind == node.SizeFixed {
			widths[i] = max(0, b.Size.N) + b.Margin.Horizontal()
			remaining -= widths[i]
		}
	}
	totalWeight := 0
	for i, c := range children {
		if !takesSpace(c.n) {
			continue
		}
		if b, ok := boxOf(c); ok && b.Size.Kind != node.SizeContent {
			totalWeight += flexWeight(c)
			continue
		}
		widths[i] = min(s.width(c, max(0, remaining)), max(0, remaining))
		remaining -= widths[i]
	}
	if remaining > 0 && totalWeight > 0 {
		grow(children, widths, remaining, totalWeight)
	}
	return widths
}

// grow adds free space to flex children in proportion to their weight. The
// integer remainder goes to the earliest flex children.
func grow(children []*item, sizes []int, free, totalWeight int) {
	given := 0
	for i, c := range children {
		if wt := flexWeight(c); wt > 0 {
			share := free * wt / totalWeight
			sizes[i] += share
			given += share
		}
	}
	for i, c := range children {
		if given >= free {
			break
		}
		if flexWeight(c) > 0 {
			sizes[i]++
			given++
		}
	}
}

// justifyOffsets returns the extra space to leave before each of count
// items so that free space is distributed per justify.
func justifyOffsets(justify node.Justify, free, count int) []int {
	offsets := make([]int, count)
	if count == 0 || free <= 0 {
		return offsets
	}
	var lead, between float64
	f, n := float64(free), float64(count)
	switch justify {
	case node.JustifyEnd:
		lead = f
	case node.JustifyCenter:
		lead = f / 2
	case node.JustifySpaceBetween:
		if count > 1 {
			between = f / (n - 1)
		}
	case node.JustifySpaceAround:
		lead = f / (2 * n)
		between = f / n
	case node.JustifySpaceEvenly:
		lead = f / (n + 1)
		between = lead
	}
	prev := 0
	for i := range offsets {
		at := int(math.Floor(lead + float64(i)*between))
		offsets[i] = at - prev
		prev = at
	}
	return offsets
}
