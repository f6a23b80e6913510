package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/ioctx"
	"github.com/vito/oil/pkg/layout"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/term"
)

// rectEntry is one node's computed rectangle, as dumped by oil layout.
type rectEntry struct {
	Index node.Index
	Depth int
	Node  string
	Rect  layout.Rect
}

func layoutCmd(opts *Options) *cobra.Command {
	var (
		width  int
		height int
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Print the rectangle computed for every node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadTree(args[0])
			if err != nil {
				return err
			}
			w, h := viewportSize(width, height, term.StdoutSize)
			l := layout.Compute(root, w, h)
			entries := rectEntries(root, l)

			out := ioctx.StdoutFromContext(cmd.Context())
			if raw {
				_, err = pretty.Fprintf(out, "%# v\n", entries)
			} else {
				err = writeRectTree(out, entries, l)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Viewport width (default: terminal width)")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height (default: terminal height)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Dump entries as Go values")
	return cmd
}

func rectEntries(root node.Node, l *layout.Layout) []rectEntry {
	var entries []rectEntry
	node.Walk(root, func(idx node.Index, depth int, n node.Node) bool {
		r, _ := l.Rect(idx)
		entries = append(entries, rectEntry{
			Index: idx,
			Depth: depth,
			Node:  describe(n),
			Rect:  r,
		})
		return true
	})
	return entries
}

func writeRectTree(w io.Writer, entries []rectEntry, l *layout.Layout) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%3d %s%s %s\n", e.Index, strings.Repeat("  ", e.Depth), e.Node, e.Rect); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "height: %d\n", l.Height)
	if err == nil && l.Degraded != nil {
		_, err = fmt.Fprintf(w, "degraded: %v\n", l.Degraded)
	}
	return err
}
