package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/config"
	"github.com/vito/oil/pkg/ioctx"
)

// Set with -ldflags at release time.
var (
	version = "v0.1.0"
	commit  = "dev"
)

// Options holds the flags shared by every subcommand.
type Options struct {
	Debug      bool
	ConfigPath string

	StyleSensitiveDiff bool
	NoSync             bool
	DebugLog           string

	// Config is loaded before any subcommand runs, with flags applied on
	// top.
	Config *config.Config
}

func main() {
	var opts Options

	rootCmd := &cobra.Command{
		Use:   "oil",
		Short: "Terminal UI rendering engine",
		Long: `oil lays out node trees with a flexbox-style solver and draws them into
the terminal's normal scrollback, repainting only what changed.

Trees can be written as HTML or as YAML node specs.`,
		Example: `  # Render a template once
  oil render screen.html

  # Re-render on every save
  oil preview screen.yaml

  # Show where every node landed
  oil layout --width 40 screen.html

  # Try the interactive widgets
  oil demo`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(ioctx.StderrFromContext(ctx), opts.Debug)
			slog.SetDefault(logger)
			ctx = ioctx.LoggerToContext(ctx, logger)
			cmd.SetContext(ctx)

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to oil.toml (default: search upward from the working directory)")
	flags.BoolVar(&opts.StyleSensitiveDiff, "style-sensitive-diff", false, "Redraw lines whose styling changed even if their text did not")
	flags.BoolVar(&opts.NoSync, "no-sync", false, "Do not wrap frames in synchronized update sequences")
	flags.StringVar(&opts.DebugLog, "debug-log", "", "Append per-frame render stats as JSONL to this file")

	rootCmd.AddCommand(
		renderCmd(&opts),
		layoutCmd(&opts),
		previewCmd(&opts),
		demoCmd(&opts),
		stressCmd(&opts),
		statsCmd(&opts),
	)

	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

// newLogger logs in color when w is a terminal and as plain logfmt
// otherwise.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig reads --config, or searches upward for oil.toml, then applies
// any flags the user set explicitly.
func (opts *Options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, found, err := config.Find(cwd)
		if err != nil {
			return nil, err
		}
		if path != "" {
			slog.Debug("loaded config", "path", path)
		}
		cfg = found
	}

	flags := cmd.Flags()
	if flags.Changed("style-sensitive-diff") {
		cfg.Render.StyleSensitiveDiff = opts.StyleSensitiveDiff
	}
	if flags.Changed("no-sync") {
		cfg.Render.SyncOutput = !opts.NoSync
	}
	if flags.Changed("debug-log") {
		cfg.Render.DebugLog = opts.DebugLog
	}
	return cfg, nil
}
