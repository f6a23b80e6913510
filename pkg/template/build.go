// Package template builds node trees from data instead of Go code. Both
// front ends produce the same element form, [tag, {attrs}, children...],
// which Build turns into nodes:
//
//   - ParseYAML reads that form directly.
//   - ParseHTML reads a small HTML vocabulary and translates it.
package template

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/node"
)

// ErrUnknownTag is returned for an element whose tag is not in the
// vocabulary.
var ErrUnknownTag = errors.New("unknown tag")

// DefaultPopupMaxVisible is the popup height when max_visible is unset.
const DefaultPopupMaxVisible = 10

type builder func(attrs Attrs, children []any) (node.Node, error)

var builders map[string]builder

func init() {
	builders = map[string]builder{
		"text":           buildText,
		"col":            boxBuilder(node.DirColumn),
		"column":         boxBuilder(node.DirColumn),
		"row":            boxBuilder(node.DirRow),
		"spacer":         buildSpacer,
		"flex":           buildFlex,
		"fixed":          buildFixed,
		"divider":        buildDivider,
		"hr":             buildDivider,
		"fragment":       buildFragment,
		"focusable":      buildFocusable,
		"static":         buildStatic,
		"scrollback":     buildStatic,
		"error-boundary": buildErrorBoundary,
		"overlay":        buildOverlay,
		"spinner":        buildSpinner,
		"input":          buildInput,
		"popup":          buildPopup,
		"badge":          buildBadge,
		"progress":       buildProgress,
		"bullet-list":    buildList(node.BulletList),
		"numbered-list":  buildList(node.NumberedList),
		"kv":             buildKV,
		"key-value":      buildKV,
		"raw":            buildRaw,
	}
}

// Build converts an element spec into a node. A nil spec is Empty and a
// string is plain text.
func Build(spec any) (node.Node, error) {
	switch v := spec.(type) {
	case nil:
		return node.Empty{}, nil
	case string:
		return node.TextNode(v), nil
	case []any:
		return buildElement(v)
	}
	return nil, errors.Errorf("invalid child: expected a list, string or null, got %T", spec)
}

func buildElement(el []any) (node.Node, error) {
	if len(el) == 0 {
		return nil, errors.New("missing tag")
	}
	tag, ok := el[0].(string)
	if !ok {
		return nil, errors.Errorf("tag must be a string, got %T", el[0])
	}
	attrs := Attrs{}
	children := el[1:]
	if len(children) > 0 {
		if m, ok := children[0].(map[string]any); ok {
			attrs = Attrs(m)
			children = children[1:]
		}
	}
	build, ok := builders[tag]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTag, "%q", tag)
	}
	n, err := build(attrs, children)
	if err != nil {
		return nil, errors.Wrapf(err, "<%s>", tag)
	}
	return n, nil
}

func buildChildren(children []any) ([]node.Node, error) {
	var nodes []node.Node
	for _, c := range children {
		n, err := Build(c)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// textContent joins the string children, or falls back to the key attribute.
func textContent(attrs Attrs, key string, children []any) string {
	var parts []string
	for _, c := range children {
		if s, ok := c.(string); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "")
	}
	return attrs.stringOr(key, "")
}

func buildText(attrs Attrs, children []any) (node.Node, error) {
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	t := node.Text{Content: textContent(attrs, "content", children), Style: st}
	if attrs.stringOr("wrap", "") == "truncate" {
		t.Wrap = node.WrapTruncate
	}
	return t, nil
}

func boxBuilder(dir node.Direction) builder {
	return func(attrs Attrs, children []any) (node.Node, error) {
		kids, err := buildChildren(children)
		if err != nil {
			return nil, err
		}
		b := node.Box{Direction: dir, Children: kids}
		if b.Gap, _, err = attrs.gap(); err != nil {
			return nil, err
		}
		if b.Padding, _, err = attrs.padding("padding"); err != nil {
			return nil, err
		}
		if b.Margin, _, err = attrs.padding("margin"); err != nil {
			return nil, err
		}
		if b.Border, err = attrs.border(); err != nil {
			return nil, err
		}
		if b.Justify, err = attrs.justify(); err != nil {
			return nil, err
		}
		if b.Align, err = attrs.align(); err != nil {
			return nil, err
		}
		if b.Size, err = attrs.size(); err != nil {
			return nil, err
		}
		if b.Style, err = attrs.style(); err != nil {
			return nil, err
		}
		return b, nil
	}
}

func buildSpacer(Attrs, []any) (node.Node, error) {
	return node.Spacer(), nil
}

// wrap puts children into a column box of the given size.
func wrap(size node.Size, children []any) (node.Node, error) {
	kids, err := buildChildren(children)
	if err != nil {
		return nil, err
	}
	return node.Col(kids...).WithSize(size), nil
}

func buildFlex(attrs Attrs, children []any) (node.Node, error) {
	w, err := attrs.integer("weight", 1)
	if err != nil {
		return nil, err
	}
	return wrap(node.Flex(w), children)
}

func buildFixed(attrs Attrs, children []any) (node.Node, error) {
	if !attrs.has("height") {
		return nil, attrError("height", "fixed requires a height")
	}
	h, err := attrs.integer("height", 0)
	if err != nil {
		return nil, err
	}
	return wrap(node.Fixed(h), children)
}

func buildDivider(attrs Attrs, _ []any) (node.Node, error) {
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	d := node.Divider(st)
	if ch := attrs.stringOr("char", ""); ch != "" {
		r := []rune(ch)[0]
		d.Content = strings.Repeat(string(r), len([]rune(d.Content)))
	}
	return d, nil
}

func buildFragment(_ Attrs, children []any) (node.Node, error) {
	kids, err := buildChildren(children)
	if err != nil {
		return nil, err
	}
	return node.Fragment{Children: kids}, nil
}

func single(children []any, what string) (node.Node, error) {
	if len(children) == 0 {
		return nil, errors.Errorf("%s requires a child", what)
	}
	return Build(children[0])
}

func buildFocusable(attrs Attrs, children []any) (node.Node, error) {
	id := attrs.stringOr("id", "")
	if id == "" {
		return nil, attrError("id", "focusable requires an id")
	}
	child, err := single(children, "focusable")
	if err != nil {
		return nil, err
	}
	return node.Focusable{ID: id, Child: child}, nil
}

func buildStatic(attrs Attrs, children []any) (node.Node, error) {
	key := attrs.stringOr("key", "")
	if key == "" {
		return nil, attrError("key", "static requires a key")
	}
	kids, err := buildChildren(children)
	if err != nil {
		return nil, err
	}
	return node.Static{Key: key, Children: kids}, nil
}

func buildErrorBoundary(_ Attrs, children []any) (node.Node, error) {
	if len(children) < 2 {
		return nil, errors.New("error-boundary requires a child and a fallback")
	}
	kids, err := buildChildren(children[:2])
	if err != nil {
		return nil, err
	}
	return node.ErrorBoundary{Child: kids[0], Fallback: kids[1]}, nil
}

func buildOverlay(attrs Attrs, children []any) (node.Node, error) {
	fromBottom, err := attrs.integer("from_bottom", 0)
	if err != nil {
		return nil, err
	}
	child, err := single(children, "overlay")
	if err != nil {
		return nil, err
	}
	return node.Overlay{Child: child, FromBottom: fromBottom}, nil
}

func buildSpinner(attrs Attrs, _ []any) (node.Node, error) {
	frame, err := attrs.integer("frame", 0)
	if err != nil {
		return nil, err
	}
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	return node.Spinner{Label: attrs.stringOr("label", ""), Frame: frame, Style: st}, nil
}

func buildInput(attrs Attrs, _ []any) (node.Node, error) {
	value := attrs.stringOr("value", "")
	cursor, err := attrs.integer("cursor", len([]rune(value)))
	if err != nil {
		return nil, err
	}
	focused, err := attrs.boolean("focused", true)
	if err != nil {
		return nil, err
	}
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	return node.Input{
		Value:       value,
		Cursor:      cursor,
		Placeholder: attrs.stringOr("placeholder", ""),
		Focused:     focused,
		Style:       st,
	}, nil
}

func buildPopup(attrs Attrs, children []any) (node.Node, error) {
	selected, err := attrs.integer("selected", 0)
	if err != nil {
		return nil, err
	}
	maxVisible, err := attrs.integer("max_visible", DefaultPopupMaxVisible)
	if err != nil {
		return nil, err
	}
	offset, err := attrs.integer("offset", 0)
	if err != nil {
		return nil, err
	}
	var items []node.PopupItem
	for _, c := range children {
		switch v := c.(type) {
		case string:
			items = append(items, node.PopupItem{Label: v})
		case []any:
			if len(v) == 0 {
				continue
			}
			label, ok := v[0].(string)
			if !ok {
				continue
			}
			item := node.PopupItem{Label: label}
			if len(v) > 1 {
				if m, ok := v[1].(map[string]any); ok {
					a := Attrs(m)
					item.Description = a.stringOr("desc", "")
					item.Kind = a.stringOr("kind", "")
				}
			}
			items = append(items, item)
		}
	}
	if offset == 0 && selected >= maxVisible && maxVisible > 0 {
		offset = selected - maxVisible + 1
	}
	return node.Popup{
		Items:          items,
		Selected:       selected,
		ViewportOffset: offset,
		MaxVisible:     maxVisible,
	}, nil
}

func buildBadge(attrs Attrs, children []any) (node.Node, error) {
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	return node.Badge(textContent(attrs, "label", children), st), nil
}

func buildProgress(attrs Attrs, _ []any) (node.Node, error) {
	value, err := attrs.float("value", 0)
	if err != nil {
		return nil, err
	}
	width, err := attrs.integer("width", 20)
	if err != nil {
		return nil, err
	}
	st, err := attrs.style()
	if err != nil {
		return nil, err
	}
	return node.Progress(value, width, st), nil
}

func buildList(mk func(items ...string) node.Box) builder {
	return func(_ Attrs, children []any) (node.Node, error) {
		var items []string
		for _, c := range children {
			if s, ok := c.(string); ok {
				items = append(items, s)
			}
		}
		return mk(items...), nil
	}
}

// buildKV takes a key/value attribute pair, [key, value] children, or both.
func buildKV(attrs Attrs, children []any) (node.Node, error) {
	var pairs []node.KVPair
	if attrs.has("key") {
		pairs = append(pairs, node.KVPair{
			Key:   attrs.stringOr("key", ""),
			Value: attrs.stringOr("value", ""),
		})
	}
	for _, c := range children {
		pair, ok := c.([]any)
		if !ok || len(pair) != 2 {
			return nil, errors.Errorf("kv children must be [key, value] pairs, got %v", c)
		}
		pairs = append(pairs, node.KVPair{Key: toString(pair[0]), Value: toString(pair[1])})
	}
	if len(pairs) == 0 {
		return nil, attrError("key", "kv requires a key")
	}
	return node.KV(pairs...), nil
}

func buildRaw(attrs Attrs, children []any) (node.Node, error) {
	w, err := attrs.integer("width", 0)
	if err != nil {
		return nil, err
	}
	h, err := attrs.integer("height", 1)
	if err != nil {
		return nil, err
	}
	return node.Raw{
		Content:       textContent(attrs, "content", children),
		DisplayWidth:  w,
		DisplayHeight: h,
	}, nil
}
