// Package render turns a node tree into styled lines. Layout decides where
// everything goes; render paints each node into its rectangle.
package render

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/layout"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/overlay"
)

// Cursor is where the hardware cursor should go after a frame is drawn.
type Cursor struct {
	// Col is the cursor's column on its line.
	Col int
	// RowFromEnd is the number of visual rows below the cursor's line.
	RowFromEnd int
	Visible    bool
}

// Result is one rendered frame.
type Result struct {
	Lines    []string
	Cursor   Cursor
	Overlays []overlay.Overlay
	Layout   *layout.Layout
}

// Content joins the lines with newlines.
func (r *Result) Content() string {
	return strings.Join(r.Lines, "\n")
}

// Filter decides which Static subtrees to leave out of a frame.
type Filter interface {
	SkipStatic(key string) bool
}

// SkipStaticFunc adapts a function to Filter.
type SkipStaticFunc func(key string) bool

func (f SkipStaticFunc) SkipStatic(key string) bool { return f(key) }

// Option configures Render.
type Option func(*options)

type options struct {
	filter Filter
}

// WithFilter prunes Static subtrees that f skips. Pruned subtrees take no
// space.
func WithFilter(f Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// Render lays out root in a width by height viewport and paints it.
func Render(root node.Node, width, height int, opts ...Option) *Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if root == nil {
		root = node.Empty{}
	}
	if o.filter != nil {
		root = prune(root, o.filter)
	}

	l := layout.Compute(root, width, height)
	p := &painter{
		layout: l,
		width:  max(0, width),
		lines:  make([]string, l.Height),
	}
	p.paint(root)

	res := &Result{
		Lines:    p.lines,
		Overlays: p.overlays,
		Layout:   l,
	}
	if p.cursor.visible && p.cursor.row < len(p.lines) {
		res.Cursor = Cursor{
			Col:        p.cursor.col,
			RowFromEnd: ansitext.TotalVisualRows(p.lines[p.cursor.row+1:], width),
			Visible:    true,
		}
	}
	return res
}

func prune(n node.Node, f Filter) node.Node {
	switch n := n.(type) {
	case node.Static:
		if f.SkipStatic(n.Key) {
			return node.Empty{}
		}
		n.Children = pruneAll(n.Children, f)
		return n
	case node.Box:
		n.Children = pruneAll(n.Children, f)
		return n
	case node.Fragment:
		n.Children = pruneAll(n.Children, f)
		return n
	case node.Focusable:
		n.Child = prune(n.Child, f)
		return n
	case node.ErrorBoundary:
		n.Child = prune(n.Child, f)
		n.Fallback = prune(n.Fallback, f)
		return n
	case node.Overlay:
		n.Child = prune(n.Child, f)
		return n
	}
	return n
}

func pruneAll(children []node.Node, f Filter) []node.Node {
	if len(children) == 0 {
		return children
	}
	pruned := make([]node.Node, len(children))
	for i, c := range children {
		pruned[i] = prune(c, f)
	}
	return pruned
}

// paintHook is called before each node is painted. Tests use it to inject
// failures.
var paintHook func(node.Node)

type cursorPos struct {
	row, col int
	visible  bool
}

type painter struct {
	layout   *layout.Layout
	width    int
	lines    []string
	next     node.Index
	cursor   cursorPos
	overlays []overlay.Overlay
}

// put splices s into row at col, covering at most w columns.
func (p *painter) put(row, col int, s string, w int) {
	if row < 0 || row >= len(p.lines) || w <= 0 {
		return
	}
	p.lines[row] = overlay.CompositeLineAt(p.lines[row], s, col, w, p.width)
}

func (p *painter) paint(n node.Node) {
	if n == nil {
		n = node.Empty{}
	}
	idx := p.next
	p.next++
	if paintHook != nil {
		paintHook(n)
	}
	x, y, w, h := p.layout.Rects[idx].Cells()

	switch n := n.(type) {
	case node.Text:
		p.paintText(n, x, y, w, h)

	case node.Input:
		p.paintInput(n, x, y, w)

	case node.Spinner:
		line := n.Style.Apply(n.CurrentFrame())
		if n.Label != "" {
			line += " " + n.Style.Apply(n.Label)
		}
		p.put(y, x, line, w)

	case node.Popup:
		for i, line := range popupLines(n, w) {
			if i >= h {
				break
			}
			p.put(y+i, x, line, w)
		}

	case node.Raw:
		for i, line := range strings.Split(n.Content, "\n") {
			if i >= h {
				break
			}
			p.put(y+i, x, line, w)
		}

	case node.Box:
		p.paintBorder(n, x, y, w, h)
		for _, c := range n.Children {
			p.paint(c)
		}

	case node.ErrorBoundary:
		p.paintBoundary(n, x, y, w, h)

	case node.Overlay:
		p.collectOverlay(n)

	default:
		for _, c := range node.Children(n) {
			p.paint(c)
		}
	}
}

func (p *painter) paintText(n node.Text, x, y, w, h int) {
	var lines []string
	if n.Wrap == node.WrapTruncate {
		for line := range strings.SplitSeq(n.Content, "\n") {
			lines = append(lines, ansitext.TruncateToWidth(line, w, false))
		}
	} else {
		lines = ansitext.WrapText(n.Content, w)
	}
	for i, line := range lines {
		if i >= h {
			break
		}
		p.put(y+i, x, n.Style.Apply(line), w)
	}
}

func (p *painter) paintInput(n node.Input, x, y, w int) {
	switch {
	case n.Value != "":
		p.put(y, x, n.Style.Apply(n.Value), w)
	case n.Placeholder != "":
		p.put(y, x, node.Style{Dim: true}.Apply(n.Placeholder), w)
	}
	if !n.Focused {
		return
	}
	runes := []rune(n.Value)
	at := min(max(0, n.Cursor), len(runes))
	p.cursor = cursorPos{
		row:     y,
		col:     x + min(ansitext.VisibleWidth(string(runes[:at])), max(0, w-1)),
		visible: true,
	}
}

func (p *painter) paintBorder(b node.Box, x, y, w, h int) {
	if b.Border == node.BorderNone || w < 2 || h < 2 {
		return
	}
	g := b.Border.Glyphs()
	st := b.Style
	p.put(y, x, st.Apply(g.TopLeft+strings.Repeat(g.Top, w-2)+g.TopRight), w)
	for row := y + 1; row < y+h-1; row++ {
		p.put(row, x, st.Apply(g.Left), 1)
		p.put(row, x+w-1, st.Apply(g.Right), 1)
	}
	p.put(y+h-1, x, st.Apply(g.BottomLeft+strings.Repeat(g.Bottom, w-2)+g.BottomRight), w)
}

// paintBoundary paints the boundary's child, and if that panics, restores
// the canvas and paints the fallback into the same rectangle instead.
func (p *painter) paintBoundary(b node.ErrorBoundary, x, y, w, h int) {
	child := node.Children(b)[0]
	start := p.next
	snapshot := slices.Clone(p.lines)
	cursor := p.cursor
	overlays := len(p.overlays)

	err := p.try(child)
	if err == nil {
		return
	}
	slog.Warn("error boundary caught render failure", "error", err)

	p.lines = snapshot
	p.cursor = cursor
	p.overlays = p.overlays[:overlays]
	p.next = start + node.Index(node.Count(child))

	if b.Fallback == nil {
		return
	}
	fallback := Render(b.Fallback, w, h)
	for i, line := range fallback.Lines {
		if i >= h {
			break
		}
		p.put(y+i, x, line, w)
	}
}

func (p *painter) try(n node.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	p.paint(n)
	return nil
}

// collectOverlay paints an overlay's content onto its own canvas. The
// content was laid out with its origin at (0, 0).
func (p *painter) collectOverlay(o node.Overlay) {
	child := node.Children(o)[0]
	_, _, _, h := p.layout.Rects[p.next].Cells()
	sub := &painter{
		layout: p.layout,
		width:  p.width,
		lines:  make([]string, h),
		next:   p.next,
	}
	sub.paint(child)
	p.next = sub.next

	p.overlays = append(p.overlays, overlay.Overlay{
		Lines:   sub.lines,
		Anchor:  overlay.AnchorBottomLeft,
		OffsetY: -max(0, o.FromBottom),
	})
	p.overlays = append(p.overlays, sub.overlays...)
}
