// Package node describes what to draw. A Node tree is rebuilt by the host for
// every frame, laid out, rendered, and discarded. Nodes are plain values with
// no behavior beyond construction.
package node

// Node is one element of a frame's content tree. The set of variants is
// closed; every variant is a value type defined in this package.
type Node interface {
	isNode()
}

// Index identifies a node by its position in a pre-order walk of the tree
// rooted at the node passed to Walk. Layout results are keyed by it.
type Index int

// Empty draws nothing and reserves no space.
type Empty struct{}

// TextWrap controls how a Text node fits its content to the available width.
type TextWrap int

const (
	// WrapWord breaks at whitespace, falling back to hard breaks for words
	// wider than the available width.
	WrapWord TextWrap = iota
	// WrapTruncate keeps one row per explicit line and clips each row with an
	// ellipsis.
	WrapTruncate
)

// Text is a run of plain text drawn in a single style. Explicit newlines
// start new rows.
type Text struct {
	Content string
	Style   Style
	Wrap    TextWrap
}

// Direction is the main axis of a Box.
type Direction int

const (
	DirColumn Direction = iota
	DirRow
)

func (d Direction) String() string {
	if d == DirRow {
		return "row"
	}
	return "column"
}

// Box is a flex container.
type Box struct {
	Direction Direction
	Size      Size
	Padding   Padding
	Margin    Padding
	Border    Border
	Gap       Gap
	Justify   Justify
	Align     Align
	// Style is applied to the border glyphs.
	Style    Style
	Children []Node
}

// Input is a single-line text field.
type Input struct {
	Value string
	// Cursor is a rune offset into Value.
	Cursor      int
	Placeholder string
	Focused     bool
	Style       Style
}

// DefaultSpinnerFrames is used when a Spinner has no frames of its own.
var DefaultSpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner is an animation frame followed by an optional label.
type Spinner struct {
	Label  string
	Frame  int
	Frames []string
	Style  Style
}

// CurrentFrame returns the glyph for Frame, wrapping around the frame set.
func (s Spinner) CurrentFrame() string {
	frames := s.Frames
	if len(frames) == 0 {
		frames = DefaultSpinnerFrames
	}
	i := s.Frame % len(frames)
	if i < 0 {
		i += len(frames)
	}
	return frames[i]
}

// PopupItem is one row of a Popup.
type PopupItem struct {
	Label       string
	Kind        string
	Description string
}

// Popup is a scrollable selection list, typically a completion menu.
type Popup struct {
	Items          []PopupItem
	Selected       int
	ViewportOffset int
	MaxVisible     int

	SelectedStyle   Style
	UnselectedStyle Style
}

// VisibleRows is the number of rows the popup occupies.
func (p Popup) VisibleRows() int {
	return max(0, min(p.MaxVisible, len(p.Items)))
}

// Fragment groups children in a column without any box properties.
type Fragment struct {
	Children []Node
}

// Static marks content that a consumer tracks by Key, for example content
// that has already been committed to scrollback and need not be redrawn.
type Static struct {
	Key      string
	Children []Node
}

// Focusable marks its child as a focus target. It has no layout effect.
type Focusable struct {
	ID    string
	Child Node
}

// ErrorBoundary draws Fallback in place of Child if drawing Child fails.
type ErrorBoundary struct {
	Child    Node
	Fallback Node
}

// Overlay is drawn on top of the frame rather than inline. It reserves no
// space in the layout; FromBottom is the number of rows between the bottom of
// the viewport and the overlay's last row.
type Overlay struct {
	Child      Node
	FromBottom int
}

// Raw is pre-rendered content, such as an image escape sequence, that
// occupies a fixed number of cells.
type Raw struct {
	Content       string
	DisplayWidth  int
	DisplayHeight int
}

func (Empty) isNode()         {}
func (Text) isNode()          {}
func (Box) isNode()           {}
func (Input) isNode()         {}
func (Spinner) isNode()       {}
func (Popup) isNode()         {}
func (Fragment) isNode()      {}
func (Static) isNode()        {}
func (Focusable) isNode()     {}
func (ErrorBoundary) isNode() {}
func (Overlay) isNode()       {}
func (Raw) isNode()           {}

// Children returns the direct children of n in drawing order. A nil child of
// a wrapper node is reported as Empty.
func Children(n Node) []Node {
	switch n := n.(type) {
	case Box:
		return n.Children
	case Fragment:
		return n.Children
	case Static:
		return n.Children
	case Focusable:
		return []Node{orEmpty(n.Child)}
	case ErrorBoundary:
		return []Node{orEmpty(n.Child)}
	case Overlay:
		return []Node{orEmpty(n.Child)}
	}
	return nil
}

func orEmpty(n Node) Node {
	if n == nil {
		return Empty{}
	}
	return n
}

// Walk visits root and its descendants in pre-order, passing each node's
// index and depth. If fn returns false the node's children are skipped, but
// their indices are still consumed so that numbering is stable.
func Walk(root Node, fn func(idx Index, depth int, n Node) bool) {
	next := Index(0)
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		n = orEmpty(n)
		idx := next
		next++
		if !fn(idx, depth, n) {
			next += Index(countDescendants(n))
			return
		}
		for _, c := range Children(n) {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	return 1 + countDescendants(orEmpty(n))
}

func countDescendants(n Node) int {
	total := 0
	for _, c := range Children(n) {
		total += Count(c)
	}
	return total
}
