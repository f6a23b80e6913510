package node

import (
	"fmt"

	"charm.land/lipgloss/v2"
)

// SizeKind selects how a Box is sized along its parent's main axis.
type SizeKind int

const (
	SizeContent SizeKind = iota
	SizeFixed
	SizeFlex
)

// Size is a sizing policy. The zero value sizes to content.
type Size struct {
	Kind SizeKind
	// N is the cell count for SizeFixed and the weight for SizeFlex.
	N int
}

// Fixed pins the main-axis size to n cells.
func Fixed(n int) Size { return Size{Kind: SizeFixed, N: n} }

// Flex grows to fill remaining space in proportion to weight.
func Flex(weight int) Size { return Size{Kind: SizeFlex, N: weight} }

// Content sizes to the intrinsic size of the content.
func Content() Size { return Size{} }

func (s Size) String() string {
	switch s.Kind {
	case SizeFixed:
		return fmt.Sprintf("fixed(%d)", s.N)
	case SizeFlex:
		return fmt.Sprintf("flex(%d)", s.N)
	}
	return "content"
}

// Padding is spacing in cells on each side of a box.
type Padding struct {
	Top, Right, Bottom, Left int
}

// PadAll pads every side by n.
func PadAll(n int) Padding { return Padding{n, n, n, n} }

// PadXY pads left and right by x, top and bottom by y.
func PadXY(x, y int) Padding { return Padding{Top: y, Right: x, Bottom: y, Left: x} }

func (p Padding) Horizontal() int { return max(0, p.Left) + max(0, p.Right) }
func (p Padding) Vertical() int   { return max(0, p.Top) + max(0, p.Bottom) }

// Gap is the spacing between children: Row between stacked rows of a column,
// Column between side-by-side children of a row.
type Gap struct {
	Row, Column int
}

// Border selects a box-drawing glyph set.
type Border int

const (
	BorderNone Border = iota
	BorderSingle
	BorderDouble
	BorderRounded
	BorderHeavy
)

// Glyphs returns the glyph set for b.
func (b Border) Glyphs() lipgloss.Border {
	switch b {
	case BorderDouble:
		return lipgloss.DoubleBorder()
	case BorderRounded:
		return lipgloss.RoundedBorder()
	case BorderHeavy:
		return lipgloss.ThickBorder()
	case BorderSingle:
		return lipgloss.NormalBorder()
	}
	return lipgloss.Border{}
}

// Size is the number of cells the border takes on each side.
func (b Border) Size() int {
	if b == BorderNone {
		return 0
	}
	return 1
}

// Justify distributes free space along the main axis.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align positions children along the cross axis.
type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
	AlignStretch
)
