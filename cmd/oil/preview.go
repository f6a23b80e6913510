package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/config"
	"github.com/vito/oil/pkg/node"
)

func previewCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Render a template and redraw it whenever the file changes",
		Long: `Preview draws FILE through the diff renderer and redraws it whenever the
file is saved or the terminal is resized. Parse errors are shown in place
of the frame until the file is fixed.

Keys: r forces a full redraw, q or ctrl+c quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), opts.Config, args[0])
		},
	}
}

// preview holds the latest parse of the watched file. It is only touched
// on the session goroutine.
type preview struct {
	path    string
	cfg     *config.Config
	tree    node.Node
	err     error
	reloads int
}

func (p *preview) load() {
	p.tree, p.err = loadTree(p.path)
	p.reloads++
	if p.err != nil {
		slog.Debug("preview load failed", "path", p.path, "err", p.err)
	}
}

func (p *preview) View(width, height int) node.Node {
	status := node.Styled(
		fmt.Sprintf("%s  %dx%d  reload #%d  r redraw  q quit", p.path, width, height, p.reloads),
		p.cfg.Muted(),
	)
	if p.err != nil {
		return node.Col(
			node.Styled(p.err.Error(), p.cfg.Error()),
			node.Divider(p.cfg.Muted()),
			status,
		)
	}
	return node.Col(p.tree, node.Divider(p.cfg.Muted()), status)
}

func runPreview(ctx context.Context, cfg *config.Config, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()
	// Editors often save by renaming a new file over the old one, which
	// drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	p := &preview{path: path, cfg: cfg}
	p.load()

	s.View = p.View
	s.OnEvent = func(ev uv.Event) {
		switch {
		case isKey(ev, "q"):
			s.Quit()
		case isKey(ev, "r"):
			s.ForceRedraw()
		}
	}
	s.Go(func(ctx context.Context) error {
		return watchFile(ctx, watcher, abs, func() {
			s.Dispatch(func() {
				p.load()
				s.RequestRender()
			})
		})
	})
	return s.Run(ctx)
}

// watchFile calls changed for every write to path until ctx is done.
func watchFile(ctx context.Context, w *fsnotify.Watcher, path string, changed func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				changed()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", path, "err", err)
		}
	}
}
