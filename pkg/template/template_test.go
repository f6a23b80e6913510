package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/render"
)

func parseYAML(t *testing.T, src string) node.Node {
	t.Helper()
	n, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	return n
}

func parseHTML(t *testing.T, src string) node.Node {
	t.Helper()
	n, err := ParseHTML(strings.NewReader(src))
	require.NoError(t, err)
	return n
}

func TestYAMLBoxes(t *testing.T) {
	n := parseYAML(t, `
- col
- {gap: 1, border: rounded, padding: [0, 1]}
- [text, {bold: true}, Title]
- [row, [text, left], [spacer], [text, right]]
`)
	expected := node.Box{
		Direction: node.DirColumn,
		Gap:       node.Gap{Row: 1, Column: 1},
		Border:    node.BorderRounded,
		Padding:   node.PadXY(1, 0),
		Children: []node.Node{
			node.Styled("Title", node.Style{Bold: true}),
			node.Row(node.TextNode("left"), node.Spacer(), node.TextNode("right")),
		},
	}
	assert.Equal(t, expected, n)
}

func TestYAMLBoxAttributes(t *testing.T) {
	n := parseYAML(t, `[row, {justify: space-between, align: center, size: "flex(2)", margin: 1, gap: {row: 0, column: 2}}, a, b]`)
	expected := node.Row(node.TextNode("a"), node.TextNode("b")).
		WithJustify(node.JustifySpaceBetween).
		WithAlign(node.AlignCenter).
		WithSize(node.Flex(2)).
		WithMargin(node.PadAll(1)).
		WithGap(node.Gap{Column: 2})
	assert.Equal(t, expected, n)
}

func TestYAMLSizes(t *testing.T) {
	for src, size := range map[string]node.Size{
		`[col, {size: content}, x]`:     node.Content(),
		`[col, {size: 3}, x]`:           node.Fixed(3),
		`[col, {size: "fixed(4)"}, x]`:  node.Fixed(4),
		`[col, {size: {flex: 5}}, x]`:   node.Flex(5),
		`[col, {size: "flex( 1 )"}, x]`: node.Flex(1),
	} {
		n := parseYAML(t, src)
		assert.Equal(t, size, n.(node.Box).Size, src)
	}
}

func TestYAMLWidgets(t *testing.T) {
	n := parseYAML(t, `
- fragment
- [popup, {selected: 1, max_visible: 5}, alpha, [beta, {kind: fn, desc: second}]]
- [input, {value: hi, placeholder: type here}]
- [spinner, {label: loading, frame: 3}]
- [overlay, {from_bottom: 2}, [text, hint]]
- [error-boundary, [text, risky], [text, fallback]]
- [static, {key: s1}, done]
- [focusable, {id: prompt}, [text, x]]
- [kv, [name, oil], [version, "1.0"]]
- [progress, {value: 0.5, width: 4}]
- [badge, {fg: green}, ok]
- [numbered-list, one, two]
- ~
`)
	expected := node.Fragment{Children: []node.Node{
		node.Popup{
			Items: []node.PopupItem{
				{Label: "alpha"},
				{Label: "beta", Kind: "fn", Description: "second"},
			},
			Selected:   1,
			MaxVisible: 5,
		},
		node.Input{Value: "hi", Cursor: 2, Placeholder: "type here", Focused: true},
		node.Spinner{Label: "loading", Frame: 3},
		node.Overlay{Child: node.TextNode("hint"), FromBottom: 2},
		node.ErrorBoundary{Child: node.TextNode("risky"), Fallback: node.TextNode("fallback")},
		node.Static{Key: "s1", Children: []node.Node{node.TextNode("done")}},
		node.Focusable{ID: "prompt", Child: node.TextNode("x")},
		node.KV(node.KVPair{Key: "name", Value: "oil"}, node.KVPair{Key: "version", Value: "1.0"}),
		node.Progress(0.5, 4, node.Style{}),
		node.Badge("ok", node.Style{Fg: node.Named("green")}),
		node.NumberedList("one", "two"),
		node.Empty{},
	}}
	assert.Equal(t, expected, n)
}

func TestPopupScrollsToSelection(t *testing.T) {
	n := parseYAML(t, `[popup, {selected: 4, max_visible: 2}, a, b, c, d, e]`)
	assert.Equal(t, 3, n.(node.Popup).ViewportOffset)
}

func TestYAMLErrors(t *testing.T) {
	_, err := ParseYAML([]byte(`[blink, x]`))
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = ParseYAML([]byte(`[col, [row, [marquee]]]`))
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = ParseYAML([]byte(`[row, {justify: sideways}]`))
	assert.ErrorContains(t, err, "justify")

	_, err = ParseYAML([]byte(`[text, {fg: notacolor}, x]`))
	assert.ErrorContains(t, err, "fg")

	_, err = ParseYAML([]byte(`[focusable, [text, x]]`))
	assert.ErrorContains(t, err, "id")

	_, err = ParseYAML([]byte(`[error-boundary, [text, only]]`))
	assert.ErrorContains(t, err, "fallback")

	_, err = ParseYAML([]byte(`[]`))
	assert.ErrorContains(t, err, "missing tag")

	_, err = ParseYAML([]byte(`[unclosed`))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestHTMLDocument(t *testing.T) {
	n := parseHTML(t, `
<div gap="1" border="rounded">
  <p>Hello <b>world</b>!</p>
  <ul><li>one</li><li>two</li></ul>
  <hr>
  <span><text>left</text><spacer/><text>right</text></span>
</div>
`)
	expected := node.Col(
		node.Row(
			node.TextNode("Hello "),
			node.Styled("world", node.Style{Bold: true}),
			node.TextNode("!"),
		),
		node.BulletList("one", "two"),
		node.Divider(node.Style{}),
		node.Row(node.TextNode("left"), node.Spacer(), node.TextNode("right")),
	).WithGap(node.Gap{Row: 1, Column: 1}).WithBorder(node.BorderRounded)
	assert.Equal(t, expected, n)
}

func TestHTMLInlineStylesNest(t *testing.T) {
	n := parseHTML(t, `<p color="red">a <i>b <b>c</b></i></p>`)
	red := node.Named("red")
	expected := node.Row(
		node.Styled("a ", node.Style{Fg: red}),
		node.Styled("b ", node.Style{Fg: red, Italic: true}),
		node.Styled("c", node.Style{Fg: red, Italic: true, Bold: true}),
	)
	assert.Equal(t, expected, n)
}

func TestHTMLPlainParagraph(t *testing.T) {
	n := parseHTML(t, "<p>\n  some   wrapped\n  text\n</p>")
	assert.Equal(t, node.TextNode("some wrapped text"), n)
}

func TestHTMLVocabularyTags(t *testing.T) {
	n := parseHTML(t, `
<spinner label="loading" frame="2">
<input value="abc" placeholder="x" focused="false">
<popup selected="1"><li kind="fn" desc="d">alpha</li><li>beta</li></popup>
<ol><li>first</li></ol>
<badge bg="#ff0000" bold>new</badge>
`)
	expected := node.Col(
		node.Spinner{Label: "loading", Frame: 2},
		node.Input{Value: "abc", Cursor: 3, Placeholder: "x"},
		node.Popup{
			Items: []node.PopupItem{
				{Label: "alpha", Kind: "fn", Description: "d"},
				{Label: "beta"},
			},
			Selected:   1,
			MaxVisible: DefaultPopupMaxVisible,
		},
		node.NumberedList("first"),
		node.Badge("new", node.Style{Bg: node.Hex("#ff0000"), Bold: true}),
	)
	assert.Equal(t, expected, n)
}

func TestHTMLErrors(t *testing.T) {
	_, err := ParseHTML(strings.NewReader(`<div><blink>x</blink></div>`))
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = ParseHTML(strings.NewReader(`<p><div>x</div></p>`))
	assert.ErrorContains(t, err, "cannot contain")

	_, err = ParseHTML(strings.NewReader(`<div padding="1 2 3">x</div>`))
	assert.ErrorContains(t, err, "padding")
}

func TestHTMLEmpty(t *testing.T) {
	assert.Equal(t, node.Empty{}, parseHTML(t, "  \n "))
}

func TestHTMLRenders(t *testing.T) {
	n := parseHTML(t, `<row justify="space-between"><text>a</text><text>b</text></row>`)
	res := render.Render(n, 5, 10)
	assert.Equal(t, []string{"a   b"}, res.Lines)
}

func TestYAMLFixedAndKVAttributes(t *testing.T) {
	assert.Equal(t,
		node.Col(node.TextNode("x")).WithSize(node.Fixed(2)),
		parseYAML(t, `[fixed, {height: 2}, [text, x]]`))

	_, err := ParseYAML([]byte(`[fixed, [text, x]]`))
	assert.ErrorContains(t, err, "fixed requires a height")

	assert.Equal(t,
		node.KV(node.KVPair{Key: "name", Value: "oil"}),
		parseYAML(t, `[kv, {key: name, value: oil}]`))

	_, err = ParseYAML([]byte(`[kv]`))
	assert.ErrorContains(t, err, "kv requires a key")
}
