package template

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/vito/oil/pkg/node"
)

// element is one tag of an HTML document.
type element struct {
	tag      string
	attrs    Attrs
	children []any // string or *element
}

// voidTags never have children, even when written without a trailing slash.
var voidTags = map[string]bool{
	"hr":       true,
	"br":       true,
	"input":    true,
	"spacer":   true,
	"spinner":  true,
	"divider":  true,
	"progress": true,
	"raw":      true,
}

// inlineStyles are the formatting tags and the attributes they imply.
var inlineStyles = map[string]Attrs{
	"b":      {"bold": true},
	"strong": {"bold": true},
	"i":      {"italic": true},
	"em":     {"italic": true},
	"u":      {"underline": true},
	"code":   {"fg": "cyan"},
	"span":   {},
}

// blockTags map HTML containers onto element tags.
var blockTags = map[string]string{
	"div":     "col",
	"section": "col",
	"main":    "col",
	"col":     "col",
	"column":  "col",
	"row":     "row",
}

// ParseHTML reads an HTML fragment and builds a node tree from it. Several
// top-level elements are stacked in a column.
//
// Tags:
//
//	div, section, col     column box
//	span, row             row box (span holding only text is inline text)
//	p, text, li           text, with b/strong, i/em, u and code inline
//	hr, br                divider, blank line
//	ul, ol                bullet and numbered lists of li
//
// Any other element tag accepted by Build can be used directly, e.g.
// <spinner label="loading"/> or <error-boundary>.
func ParseHTML(r io.Reader) (node.Node, error) {
	root, err := tokenize(r)
	if err != nil {
		return nil, err
	}
	specs, err := blockChildren(root.children)
	if err != nil {
		return nil, err
	}
	switch len(specs) {
	case 0:
		return node.Empty{}, nil
	case 1:
		return Build(specs[0])
	}
	return Build(append([]any{"col"}, specs...))
}

// tokenize builds an element tree. Self-closing syntax is honoured for every
// tag, and unmatched end tags are ignored.
func tokenize(r io.Reader) (*element, error) {
	z := html.NewTokenizer(r)
	root := &element{}
	stack := []*element{root}
	top := func() *element { return stack[len(stack)-1] }
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return root, nil
			}
			return nil, errors.Wrap(z.Err(), "parse html")
		case html.TextToken:
			top().children = append(top().children, string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := &element{tag: tok.Data, attrs: Attrs{}}
			for _, a := range tok.Attr {
				el.attrs[a.Key] = a.Val
			}
			top().children = append(top().children, el)
			if tok.Type == html.StartTagToken && !voidTags[el.tag] {
				stack = append(stack, el)
			}
		case html.EndTagToken:
			tok := z.Token()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].tag == tok.Data {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// blockChildren converts the children of a container. Whitespace between
// elements is dropped and loose text becomes a text element.
func blockChildren(children []any) ([]any, error) {
	var specs []any
	for _, c := range children {
		switch v := c.(type) {
		case string:
			if s := collapse(v); strings.TrimSpace(s) != "" {
				specs = append(specs, []any{"text", strings.TrimSpace(s)})
			}
		case *element:
			spec, err := v.spec()
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func (e *element) spec() (any, error) {
	switch e.tag {
	case "span":
		if e.inlineOnly() {
			return e.inline(Attrs{})
		}
		return e.box("row")
	case "p", "text", "li":
		return e.inline(Attrs{})
	case "hr":
		return []any{"divider", map[string]any(e.attrs)}, nil
	case "br":
		return []any{"text", " "}, nil
	case "ul", "bullet-list":
		return append([]any{"bullet-list"}, e.listItems()...), nil
	case "ol", "numbered-list":
		return append([]any{"numbered-list"}, e.listItems()...), nil
	case "popup":
		return e.popup(), nil
	}
	if tag, ok := blockTags[e.tag]; ok {
		return e.box(tag)
	}
	if _, ok := inlineStyles[e.tag]; ok {
		return e.inline(Attrs{})
	}
	if _, ok := builders[e.tag]; !ok {
		return nil, errors.Wrapf(ErrUnknownTag, "<%s>", e.tag)
	}
	return e.passthrough()
}

func (e *element) box(tag string) (any, error) {
	kids, err := blockChildren(e.children)
	if err != nil {
		return nil, err
	}
	return append([]any{tag, map[string]any(e.attrs)}, kids...), nil
}

// inlineOnly reports whether e holds nothing but text and inline tags.
func (e *element) inlineOnly() bool {
	for _, c := range e.children {
		if el, ok := c.(*element); ok {
			if _, inline := inlineStyles[el.tag]; !inline && el.tag != "br" {
				return false
			}
		}
	}
	return true
}

// inline turns text with nested formatting into a text element, or a row
// of text elements when the formatting changes mid-line.
func (e *element) inline(inherited Attrs) (any, error) {
	pieces, attrs, err := e.inlinePieces(inherited)
	if err != nil {
		return nil, err
	}
	pieces = trimEdges(pieces)
	switch len(pieces) {
	case 0:
		return []any{"text", map[string]any(attrs), ""}, nil
	case 1:
		return pieces[0], nil
	}
	return append([]any{"row", map[string]any{}}, pieces...), nil
}

// inlinePieces flattens e into text elements. inherited holds the style
// attributes of enclosing tags.
func (e *element) inlinePieces(inherited Attrs) ([]any, Attrs, error) {
	attrs := Attrs{}
	for k, v := range inherited {
		attrs[k] = v
	}
	for k, v := range e.attrs {
		attrs[k] = v
	}
	for k, v := range inlineStyles[e.tag] {
		attrs[k] = v
	}

	var pieces []any
	for _, c := range e.children {
		switch v := c.(type) {
		case string:
			if s := collapse(v); s != "" {
				pieces = append(pieces, []any{"text", map[string]any(attrs), s})
			}
		case *element:
			if v.tag == "br" {
				continue
			}
			if _, ok := inlineStyles[v.tag]; !ok {
				return nil, nil, errors.Errorf("<%s> cannot contain <%s>", e.tag, v.tag)
			}
			sub, _, err := v.inlinePieces(attrs)
			if err != nil {
				return nil, nil, err
			}
			pieces = append(pieces, sub...)
		}
	}
	return pieces, attrs, nil
}

// trimEdges strips the leading space of the first piece and the trailing
// space of the last, dropping pieces left empty.
func trimEdges(pieces []any) []any {
	if len(pieces) == 0 {
		return pieces
	}
	first := pieces[0].([]any)
	first[2] = strings.TrimLeft(first[2].(string), " ")
	last := pieces[len(pieces)-1].([]any)
	last[2] = strings.TrimRight(last[2].(string), " ")
	out := pieces[:0]
	for _, p := range pieces {
		if p.([]any)[2] != "" {
			out = append(out, p)
		}
	}
	return out
}

// passthrough keeps a vocabulary tag as is, converting its children.
func (e *element) passthrough() (any, error) {
	spec := []any{e.tag, map[string]any(e.attrs)}
	for _, c := range e.children {
		switch v := c.(type) {
		case string:
			if s := strings.TrimSpace(collapse(v)); s != "" {
				spec = append(spec, s)
			}
		case *element:
			child, err := v.spec()
			if err != nil {
				return nil, err
			}
			spec = append(spec, child)
		}
	}
	return spec, nil
}

func (e *element) listItems() []any {
	var items []any
	for _, c := range e.children {
		if li, ok := c.(*element); ok && li.tag == "li" {
			items = append(items, strings.TrimSpace(collapse(li.text())))
		}
	}
	return items
}

// popup reads <li> children as items, with optional kind and desc
// attributes.
func (e *element) popup() any {
	spec := []any{"popup", map[string]any(e.attrs)}
	for _, c := range e.children {
		li, ok := c.(*element)
		if !ok || li.tag != "li" {
			continue
		}
		spec = append(spec, []any{
			strings.TrimSpace(collapse(li.text())),
			map[string]any{
				"kind": li.attrs.stringOr("kind", ""),
				"desc": li.attrs.stringOr("desc", ""),
			},
		})
	}
	return spec
}

func (e *element) text() string {
	var b strings.Builder
	for _, c := range e.children {
		switch v := c.(type) {
		case string:
			b.WriteString(v)
		case *element:
			b.WriteString(v.text())
		}
	}
	return b.String()
}

// collapse replaces each run of whitespace with a single space.
func collapse(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
