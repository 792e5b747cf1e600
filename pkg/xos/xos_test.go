package xos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.sha256")
	require.NoError(t, WriteFile(path, []byte("abc  file\n"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc  file\n", string(data))
}

func TestPendingFileCleanupLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.tar.gz")

	p, err := NewPendingFile(path)
	require.NoError(t, err)
	_, err = p.Write([]byte("partial archive"))
	require.NoError(t, err)
	p.Cleanup()

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "discarded write must not appear at the target path")
}

func TestPendingFileCloseAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.tar.gz")

	p, err := NewPendingFile(path)
	require.NoError(t, err)
	_, err = p.WriteString("complete archive")
	require.NoError(t, err)
	require.NoError(t, p.Chmod(0o644))
	require.NoError(t, p.CloseAtomically())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "complete archive", string(data))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.whl")
	require.NoError(t, os.WriteFile(src, []byte("wheel bytes"), 0o644))

	dst := filepath.Join(dir, "staged", "src.whl")
	require.NoError(t, CreateDir(filepath.Dir(dst), 0o755))
	require.NoError(t, CopyFile(src, dst, 0o644))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "wheel bytes", string(data))
}
