package node

import (
	"fmt"
	"strings"
)

// Col stacks children vertically.
func Col(children ...Node) Box {
	return Box{Direction: DirColumn, Children: children}
}

// Row places children side by side.
func Row(children ...Node) Box {
	return Box{Direction: DirRow, Children: children}
}

// TextNode returns unstyled text.
func TextNode(s string) Text {
	return Text{Content: s}
}

// Styled returns text drawn in st.
func Styled(s string, st Style) Text {
	return Text{Content: s, Style: st}
}

// Spacer is an empty box that absorbs free space.
func Spacer() Box {
	return Box{Size: Flex(1)}
}

// dividerLength is long enough to cover any realistic terminal; the row is
// clipped to the available width.
const dividerLength = 512

// Divider is a horizontal rule across the available width.
func Divider(st Style) Text {
	return Text{
		Content: strings.Repeat("─", dividerLength),
		Style:   st,
		Wrap:    WrapTruncate,
	}
}

// BulletList renders one "• item" row per item.
func BulletList(items ...string) Box {
	children := make([]Node, len(items))
	for i, item := range items {
		children[i] = TextNode("• " + item)
	}
	return Col(children...)
}

// NumberedList renders "1. item" rows.
func NumberedList(items ...string) Box {
	children := make([]Node, len(items))
	for i, item := range items {
		children[i] = TextNode(fmt.Sprintf("%d. %s", i+1, item))
	}
	return Col(children...)
}

// KVPair is one row of a KV table.
type KVPair struct {
	Key, Value string
}

// KV renders aligned "key  value" rows with dimmed keys.
func KV(pairs ...KVPair) Box {
	keyW := 0
	for _, p := range pairs {
		keyW = max(keyW, len([]rune(p.Key)))
	}
	children := make([]Node, len(pairs))
	for i, p := range pairs {
		pad := strings.Repeat(" ", keyW-len([]rune(p.Key))+2)
		children[i] = Row(
			Styled(p.Key+pad, Style{Dim: true}),
			TextNode(p.Value),
		)
	}
	return Col(children...)
}

// Badge is a short label padded by a space on each side.
func Badge(label string, st Style) Text {
	return Styled(" "+label+" ", st)
}

// Progress is a bar of the given width, filled to fraction (0..1).
func Progress(fraction float64, width int, st Style) Text {
	width = max(0, width)
	fraction = min(1, max(0, fraction))
	filled := int(fraction * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return Text{Content: bar, Style: st, Wrap: WrapTruncate}
}

// WithGap sets the gap between children.
func (b Box) WithGap(g Gap) Box { b.Gap = g; return b }

// WithPadding sets the inner padding.
func (b Box) WithPadding(p Padding) Box { b.Padding = p; return b }

// WithMargin sets the outer margin.
func (b Box) WithMargin(p Padding) Box { b.Margin = p; return b }

// WithBorder sets the border glyph set.
func (b Box) WithBorder(border Border) Box { b.Border = border; return b }

// WithJustify sets main-axis distribution.
func (b Box) WithJustify(j Justify) Box { b.Justify = j; return b }

// WithAlign sets cross-axis alignment.
func (b Box) WithAlign(a Align) Box { b.Align = a; return b }

// WithSize sets the sizing policy.
func (b Box) WithSize(s Size) Box { b.Size = s; return b }

// WithStyle sets the border style.
func (b Box) WithStyle(st Style) Box { b.Style = st; return b }
