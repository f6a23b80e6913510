package template

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vito/oil/pkg/node"
)

// ParseYAML reads a node spec written as nested YAML lists:
//
//	- col
//	- {gap: 1, border: rounded}
//	- [text, {bold: true}, Title]
//	- [row, [text, left], [spacer], [text, right]]
func ParseYAML(data []byte) (node.Node, error) {
	var spec any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrap(err, "parse yaml")
	}
	return Build(normalize(spec))
}

// normalize converts the map types yaml may produce into map[string]any.
func normalize(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[toString(k)] = normalize(e)
		}
		return out
	}
	return v
}
