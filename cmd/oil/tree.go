package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/template"
)

// loadTree parses an .html or .yaml template into a node tree.
func loadTree(path string) (node.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var n node.Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		n, err = template.ParseHTML(bytes.NewReader(data))
	case ".yaml", ".yml":
		n, err = template.ParseYAML(data)
	default:
		return nil, errors.Errorf("%s: unsupported template type (want .html or .yaml)", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return n, nil
}

// describe is a one-line summary of n for layout dumps.
func describe(n node.Node) string {
	switch n := n.(type) {
	case node.Empty:
		return "empty"
	case node.Text:
		return fmt.Sprintf("text %q", ansitext.TruncateToChars(ansitext.StripANSI(n.Content), 24))
	case node.Box:
		s := n.Direction.String()
		if n.Size != node.Content() {
			s += " " + n.Size.String()
		}
		if n.Border != node.BorderNone {
			s += " bordered"
		}
		return s
	case node.Input:
		return fmt.Sprintf("input %q", n.Value)
	case node.Spinner:
		return fmt.Sprintf("spinner %q", n.Label)
	case node.Popup:
		return fmt.Sprintf("popup (%d items)", len(n.Items))
	case node.Fragment:
		return "fragment"
	case node.Static:
		return fmt.Sprintf("static %q", n.Key)
	case node.Focusable:
		return fmt.Sprintf("focusable %q", n.ID)
	case node.ErrorBoundary:
		return "error-boundary"
	case node.Overlay:
		return fmt.Sprintf("overlay from_bottom=%d", n.FromBottom)
	case node.Raw:
		return fmt.Sprintf("raw %dx%d", n.DisplayWidth, n.DisplayHeight)
	}
	return fmt.Sprintf("%T", n)
}

// viewportSize picks the render size: explicit flags win, then the
// terminal on stdout, then 80x24.
func viewportSize(width, height int, termSize func() (int, int, bool)) (int, int) {
	cols, rows, ok := termSize()
	if !ok {
		cols, rows = 80, 24
	}
	if width <= 0 {
		width = cols
	}
	if height <= 0 {
		height = rows
	}
	return width, height
}
