package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/node"
)

// Attrs are an element's attributes. Values come from YAML (typed) or HTML
// (always strings), so every accessor accepts both.
type Attrs map[string]any

func attrError(key string, format string, args ...any) error {
	return errors.Errorf("invalid attribute %q: %s", key, fmt.Sprintf(format, args...))
}

func (a Attrs) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Attrs) stringOr(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	if v, ok := a[key]; ok && v != nil {
		return toString(v)
	}
	return def
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// boolean reports a flag. A bare HTML attribute (empty value) counts as set.
func (a Attrs) boolean(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "true", "yes", "1", key:
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return false, attrError(key, "expected a boolean, got %v", v)
}

func asInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func (a Attrs) integer(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, attrError(key, "expected a non-negative number, got %v", v)
	}
	return n, nil
}

func (a Attrs) float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, attrError(key, "expected a number, got %v", v)
}

// ints reads a number, a list of numbers, or a space separated string of
// numbers.
func ints(key string, v any) ([]int, error) {
	var out []int
	switch v := v.(type) {
	case []any:
		for _, e := range v {
			n, ok := asInt(e)
			if !ok || n < 0 {
				return nil, attrError(key, "expected numbers, got %v", e)
			}
			out = append(out, n)
		}
	case string:
		for f := range strings.FieldsSeq(v) {
			n, err := strconv.Atoi(f)
			if err != nil || n < 0 {
				return nil, attrError(key, "expected numbers, got %q", v)
			}
			out = append(out, n)
		}
	default:
		n, ok := asInt(v)
		if !ok || n < 0 {
			return nil, attrError(key, "expected a number, got %v", v)
		}
		out = append(out, n)
	}
	return out, nil
}

func (a Attrs) style() (node.Style, error) {
	var st node.Style
	for _, key := range []string{"fg", "color"} {
		if s, ok := a[key].(string); ok {
			c, err := node.ParseColor(s)
			if err != nil {
				return st, errors.Wrapf(err, "attribute %q", key)
			}
			st.Fg = c
		}
	}
	if s, ok := a["bg"].(string); ok {
		c, err := node.ParseColor(s)
		if err != nil {
			return st, errors.Wrap(err, `attribute "bg"`)
		}
		st.Bg = c
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{"bold", &st.Bold},
		{"italic", &st.Italic},
		{"underline", &st.Underline},
		{"dim", &st.Dim},
		{"reverse", &st.Reverse},
	}
	for _, f := range flags {
		v, err := a.boolean(f.key, false)
		if err != nil {
			return st, err
		}
		*f.dst = v
	}
	return st, nil
}

func (a Attrs) gap() (node.Gap, bool, error) {
	v, ok := a["gap"]
	if !ok {
		return node.Gap{}, false, nil
	}
	if m, ok := v.(map[string]any); ok {
		row, _ := asInt(m["row"])
		col, _ := asInt(m["column"])
		return node.Gap{Row: row, Column: col}, true, nil
	}
	ns, err := ints("gap", v)
	if err != nil {
		return node.Gap{}, false, err
	}
	switch len(ns) {
	case 1:
		return node.Gap{Row: ns[0], Column: ns[0]}, true, nil
	case 2:
		return node.Gap{Row: ns[0], Column: ns[1]}, true, nil
	}
	return node.Gap{}, false, attrError("gap", "expected 1 or 2 numbers")
}

// padding reads CSS-style shorthand: 1, 2 or 4 values, or an object with
// top/right/bottom/left.
func (a Attrs) padding(key string) (node.Padding, bool, error) {
	v, ok := a[key]
	if !ok {
		return node.Padding{}, false, nil
	}
	if m, ok := v.(map[string]any); ok {
		var p node.Padding
		p.Top, _ = asInt(m["top"])
		p.Right, _ = asInt(m["right"])
		p.Bottom, _ = asInt(m["bottom"])
		p.Left, _ = asInt(m["left"])
		return p, true, nil
	}
	ns, err := ints(key, v)
	if err != nil {
		return node.Padding{}, false, err
	}
	switch len(ns) {
	case 1:
		return node.PadAll(ns[0]), true, nil
	case 2:
		return node.PadXY(ns[1], ns[0]), true, nil
	case 4:
		return node.Padding{Top: ns[0], Right: ns[1], Bottom: ns[2], Left: ns[3]}, true, nil
	}
	return node.Padding{}, false, attrError(key, "expected 1, 2 or 4 numbers")
}

func (a Attrs) border() (node.Border, error) {
	v, ok := a["border"]
	if !ok || v == nil {
		return node.BorderNone, nil
	}
	if b, ok := v.(bool); ok {
		if b {
			return node.BorderSingle, nil
		}
		return node.BorderNone, nil
	}
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "single":
		return node.BorderSingle, nil
	case "double":
		return node.BorderDouble, nil
	case "rounded":
		return node.BorderRounded, nil
	case "heavy", "thick":
		return node.BorderHeavy, nil
	case "none", "false":
		return node.BorderNone, nil
	}
	return node.BorderNone, attrError("border", "unknown border style %v", v)
}

func (a Attrs) justify() (node.Justify, error) {
	s, ok := a["justify"].(string)
	if !ok {
		return node.JustifyStart, nil
	}
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "start":
		return node.JustifyStart, nil
	case "end":
		return node.JustifyEnd, nil
	case "center":
		return node.JustifyCenter, nil
	case "space_between":
		return node.JustifySpaceBetween, nil
	case "space_around":
		return node.JustifySpaceAround, nil
	case "space_evenly":
		return node.JustifySpaceEvenly, nil
	}
	return node.JustifyStart, attrError("justify", "unknown value %q", s)
}

func (a Attrs) align() (node.Align, error) {
	s, ok := a["align"].(string)
	if !ok {
		return node.AlignStart, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return node.AlignStart, nil
	case "end":
		return node.AlignEnd, nil
	case "center":
		return node.AlignCenter, nil
	case "stretch":
		return node.AlignStretch, nil
	}
	return node.AlignStart, attrError("align", "unknown value %q", s)
}

// size reads "content", "flex(n)", "fixed(n)", a bare number (fixed), or an
// object with a flex or fixed key.
func (a Attrs) size() (node.Size, error) {
	v, ok := a["size"]
	if !ok || v == nil {
		return node.Content(), nil
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := asInt(m["flex"]); ok {
			return node.Flex(n), nil
		}
		if n, ok := asInt(m["fixed"]); ok {
			return node.Fixed(n), nil
		}
		return node.Content(), attrError("size", "expected flex or fixed")
	}
	if n, ok := asInt(v); ok {
		return node.Fixed(n), nil
	}
	s, _ := v.(string)
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "content" {
		return node.Content(), nil
	}
	for prefix, mk := range map[string]func(int) node.Size{
		"flex(":  node.Flex,
		"fixed(": node.Fixed,
	} {
		if inner, ok := strings.CutPrefix(s, prefix); ok {
			if inner, ok := strings.CutSuffix(inner, ")"); ok {
				if n, err := strconv.Atoi(inner); err == nil && n >= 0 {
					return mk(n), nil
				}
			}
		}
	}
	return node.Content(), attrError("size", "unknown size %v", v)
}
