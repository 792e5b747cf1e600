package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesSourcePatterns(t *testing.T) {
	w := &Watcher{config: DefaultConfig(".")}

	assert.True(t, w.matches("hook.rs"))
	assert.True(t, w.matches("Cargo.toml"))
	assert.True(t, w.matches("Cargo.lock"))
	assert.True(t, w.matches("pyproject.toml"))
	assert.True(t, w.matches("release.json"))

	assert.False(t, w.matches("README.md"))
	assert.False(t, w.matches("prefligit-x86_64-unknown-linux-gnu.tar.gz"))
}

func TestIgnoresBuildOutputDirectories(t *testing.T) {
	cfg := DefaultConfig(".")
	assert.Contains(t, cfg.IgnorePatterns, "target")
	assert.Contains(t, cfg.IgnorePatterns, "dist")
	assert.Contains(t, cfg.IgnorePatterns, ".git")
}

func TestTriggerOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0o644))

	cfg := DefaultConfig(dir)
	cfg.Debounce = 10 * time.Millisecond

	w, err := NewWatcher(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}\n"), 0o644))

	select {
	case path := <-w.Triggers():
		assert.Equal(t, "main.rs", filepath.Base(path))
	case <-time.After(5 * time.Second):
		t.Fatal("expected a trigger after a source change")
	}
}

func TestNoTriggerForIgnoredOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))

	cfg := DefaultConfig(dir)
	cfg.Debounce = 10 * time.Millisecond

	w, err := NewWatcher(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Writes in the output directory, were it watched, would retrigger
	// the pipeline forever.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "app.tar.gz"), []byte("x"), 0o644))

	select {
	case path := <-w.Triggers():
		t.Fatalf("unexpected trigger for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}
