package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/ioctx"
	"github.com/vito/oil/pkg/overlay"
	"github.com/vito/oil/pkg/render"
	"github.com/vito/oil/pkg/term"
)

func renderCmd(opts *Options) *cobra.Command {
	var (
		width  int
		height int
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a template once to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadTree(args[0])
			if err != nil {
				return err
			}
			w, h := viewportSize(width, height, term.StdoutSize)
			res := render.Render(root, w, h)
			if res.Layout.Degraded != nil {
				slog.Warn("layout degraded", "err", res.Layout.Degraded)
			}
			lines := overlay.Composite(res.Lines, res.Overlays, w)

			var out io.Writer = ioctx.StdoutFromContext(cmd.Context())
			if !plain {
				out = colorprofile.NewWriter(out, os.Environ())
			}
			return writeLines(out, lines, plain)
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Viewport width (default: terminal width)")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height (default: terminal height)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Strip all escape sequences")
	return cmd
}

func writeLines(w io.Writer, lines []string, plain bool) error {
	for _, line := range lines {
		if plain {
			line = ansitext.StripANSI(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
