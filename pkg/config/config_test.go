package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/oil/pkg/node"
)

func writeConfig(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OIL_TEST_LOGS", "/tmp/oil-logs")
	path := writeConfig(t, dir, `
[render]
style_sensitive_diff = true
sync_output = false
debug_log = "${OIL_TEST_LOGS}/stats.jsonl"

[popup]
max_visible = 4

[spinner]
interval = "120ms"

[theme]
accent = "#ff8800"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Render.StyleSensitiveDiff)
	assert.False(t, cfg.Render.SyncOutput)
	assert.Equal(t, "/tmp/oil-logs/stats.jsonl", cfg.Render.DebugLog)
	assert.Equal(t, 4, cfg.Popup.MaxVisible)
	assert.Equal(t, 120*time.Millisecond, cfg.Spinner.Interval.Duration)
	assert.Equal(t, node.Style{Fg: node.Hex("#ff8800")}, cfg.Accent())
	// Unset keys keep their defaults.
	assert.Equal(t, "red", cfg.Theme.Error)
}

func TestLoadRelativeDebugLog(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[render]\ndebug_log = \"stats.jsonl\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stats.jsonl"), cfg.Render.DebugLog)
}

func TestLoadErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":      "[render\n",
		"interval":    "[spinner]\ninterval = \"soon\"\n",
		"max_visible": "[popup]\nmax_visible = 0\n",
		"color":       "[theme]\nmuted = \"mauve-ish\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), src)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	want := writeConfig(t, root, "[popup]\nmax_visible = 3\n")

	path, cfg, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, 3, cfg.Popup.MaxVisible)
}

func TestFindStopsAtGit(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[popup]\nmax_visible = 3\n")
	repo := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, cfg, err := Find(repo)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestBufferOptions(t *testing.T) {
	cfg := Default()
	opts, closer, err := cfg.BufferOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)
	require.NoError(t, closer.Close())

	cfg.Render.StyleSensitiveDiff = true
	cfg.Render.DebugLog = filepath.Join(t.TempDir(), "stats.jsonl")
	opts, closer, err = cfg.BufferOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
	require.NoError(t, closer.Close())
	assert.FileExists(t, cfg.Render.DebugLog)
}
