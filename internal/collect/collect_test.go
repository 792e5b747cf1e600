package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/digest"
	"github.com/bxb100/relpack/internal/target"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	return path
}

func linuxResult(t *testing.T, dir string) TargetResult {
	t.Helper()
	tgt := target.Target{Platform: target.PlatformLinux, Arch: "x86_64"}
	archivePath := touch(t, dir, tgt.ArchiveName("prefligit"))
	digestPath := touch(t, dir, tgt.ArchiveName("prefligit")+digest.Extension)
	return TargetResult{
		Target:  tgt,
		Archive: &archive.Archive{Target: tgt, Path: archivePath, BinaryName: "prefligit"},
		Digest:  &digest.Digest{ArchivePath: archivePath, Path: digestPath, SHA256: "abc"},
		Wheels:  []string{touch(t, dir, "prefligit-0.1.0-cp39-none-linux_x86_64.whl")},
	}
}

func TestCollectBuckets(t *testing.T) {
	dir := t.TempDir()
	res := linuxResult(t, dir)
	sdist := touch(t, dir, "prefligit-0.1.0.tar.gz")

	bundle, err := Collect("prefligit", "0.1.0", []TargetResult{res}, sdist)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"artifacts-x86_64-unknown-linux-gnu",
		"wheels-linux-x86_64-unknown-linux-gnu",
		"wheels-sdist",
	}, bundle.BucketNames())

	artifacts := bundle.Files("artifacts-x86_64-unknown-linux-gnu")
	require.Len(t, artifacts, 2)
	assert.Equal(t, res.Archive.Path, artifacts[0])
	assert.Equal(t, res.Digest.Path, artifacts[1])

	assert.Equal(t, res.Wheels, bundle.Files("wheels-linux-x86_64-unknown-linux-gnu"))
	assert.Equal(t, []string{sdist}, bundle.Files(SdistBucket))
}

func TestCollectWithoutSdistOrWheels(t *testing.T) {
	dir := t.TempDir()
	tgt := target.Target{Platform: target.PlatformWindows, Arch: "x86_64"}
	archivePath := touch(t, dir, tgt.ArchiveName("prefligit"))
	digestPath := touch(t, dir, tgt.ArchiveName("prefligit")+digest.Extension)

	bundle, err := Collect("prefligit", "0.1.0", []TargetResult{{
		Target:  tgt,
		Archive: &archive.Archive{Target: tgt, Path: archivePath, BinaryName: "prefligit.exe"},
		Digest:  &digest.Digest{ArchivePath: archivePath, Path: digestPath, SHA256: "def"},
	}}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"artifacts-x86_64-pc-windows-msvc"}, bundle.BucketNames())
}

func TestCollectRejectsIncompleteResult(t *testing.T) {
	tgt := target.Target{Platform: target.PlatformLinux, Arch: "x86_64"}
	_, err := Collect("prefligit", "0.1.0", []TargetResult{{Target: tgt}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete result")
}

func TestStage(t *testing.T) {
	dir := t.TempDir()
	res := linuxResult(t, dir)
	sdist := touch(t, dir, "prefligit-0.1.0.tar.gz")

	bundle, err := Collect("prefligit", "0.1.0", []TargetResult{res}, sdist)
	require.NoError(t, err)

	stageDir := filepath.Join(dir, "upload")
	require.NoError(t, bundle.Stage(stageDir))

	for _, bucket := range bundle.BucketNames() {
		for _, file := range bundle.Files(bucket) {
			staged := filepath.Join(stageDir, bucket, filepath.Base(file))
			original, err := os.ReadFile(file)
			require.NoError(t, err)
			copied, err := os.ReadFile(staged)
			require.NoError(t, err, "staged file %s exists", staged)
			assert.Equal(t, original, copied)
		}
	}
}
