// Package config loads oil.toml.
package config

import (
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/output"
	"github.com/vito/oil/pkg/widget"
)

// FileName is the name searched for by Find.
const FileName = "oil.toml"

// Config represents an oil.toml file.
type Config struct {
	Render  RenderConfig  `toml:"render"`
	Popup   PopupConfig   `toml:"popup"`
	Spinner SpinnerConfig `toml:"spinner"`
	Theme   ThemeConfig   `toml:"theme"`
}

type RenderConfig struct {
	// StyleSensitiveDiff redraws lines whose styling changed even when their
	// text did not.
	StyleSensitiveDiff bool `toml:"style_sensitive_diff"`

	// DebugLog is a path that receives one JSONL stats record per frame.
	// Supports ${ENV_VAR} expansion.
	DebugLog string `toml:"debug_log"`

	// SyncOutput brackets each frame in synchronized update sequences.
	SyncOutput bool `toml:"sync_output"`
}

type PopupConfig struct {
	MaxVisible int `toml:"max_visible"`
}

type SpinnerConfig struct {
	Interval Duration `toml:"interval"`
}

// ThemeConfig holds color strings in any form node.ParseColor accepts.
type ThemeConfig struct {
	Accent string `toml:"accent"`
	Muted  string `toml:"muted"`
	Error  string `toml:"error"`
}

// Duration is a time.Duration written as a string like "80ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Render: RenderConfig{SyncOutput: true},
		Popup:  PopupConfig{MaxVisible: widget.DefaultMaxVisible},
		Spinner: SpinnerConfig{
			Interval: Duration{widget.DefaultSpinnerInterval},
		},
		Theme: ThemeConfig{
			Accent: "cyan",
			Muted:  "bright-black",
			Error:  "red",
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "path", path, "key", key.String())
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", path)
	}
	cfg.Render.DebugLog = os.ExpandEnv(cfg.Render.DebugLog)
	if cfg.Render.DebugLog != "" && !filepath.IsAbs(cfg.Render.DebugLog) {
		cfg.Render.DebugLog = filepath.Join(filepath.Dir(path), cfg.Render.DebugLog)
	}
	return cfg, nil
}

// Find searches for oil.toml starting from dir and walking up to parent
// directories, stopping at a .git boundary. It returns the defaults and an
// empty path if no file is found.
func Find(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			if err != nil {
				return "", nil, err
			}
			return path, cfg, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", Default(), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if c.Popup.MaxVisible < 1 {
		return errors.Errorf("popup.max_visible must be at least 1, got %d", c.Popup.MaxVisible)
	}
	if c.Spinner.Interval.Duration <= 0 {
		return errors.Errorf("spinner.interval must be positive, got %s", c.Spinner.Interval)
	}
	for key, v := range map[string]string{
		"theme.accent": c.Theme.Accent,
		"theme.muted":  c.Theme.Muted,
		"theme.error":  c.Theme.Error,
	} {
		if _, err := node.ParseColor(v); err != nil {
			return errors.Wrap(err, key)
		}
	}
	return nil
}

// Accent is the style for highlighted content such as the selected popup
// row.
func (c *Config) Accent() node.Style {
	return node.Style{Fg: themeColor(c.Theme.Accent)}
}

// Muted is the style for secondary content.
func (c *Config) Muted() node.Style {
	return node.Style{Fg: themeColor(c.Theme.Muted)}
}

// Error is the style for failures.
func (c *Config) Error() node.Style {
	return node.Style{Fg: themeColor(c.Theme.Error), Bold: true}
}

func themeColor(s string) color.Color {
	c, err := node.ParseColor(s)
	if err != nil {
		return nil
	}
	return c
}

// BufferOptions translates [render] into output.Buffer options. The returned
// closer releases the debug log, if any.
func (c *Config) BufferOptions() ([]output.Option, io.Closer, error) {
	opts := []output.Option{output.WithSyncOutput(c.Render.SyncOutput)}
	if c.Render.StyleSensitiveDiff {
		opts = append(opts, output.WithStyleSensitiveDiff())
	}
	if c.Render.DebugLog == "" {
		return opts, nopCloser{}, nil
	}
	f, err := os.OpenFile(c.Render.DebugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open debug log")
	}
	return append(opts, output.WithDebugWriter(f)), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
