package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/cargo"
	"github.com/bxb100/relpack/internal/collect"
	"github.com/bxb100/relpack/internal/digest"
	"github.com/bxb100/relpack/internal/target"
)

// stubBuilder stands in for the cargo toolchain: it writes fake binary
// files, and fails the targets it is told to fail.
type stubBuilder struct {
	dir      string
	failWith map[string]error
	bindings bool
	sdistErr error
}

func (s *stubBuilder) Build(ctx context.Context, t target.Target) (*cargo.BuildOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.failWith[t.Triple()]; ok {
		return nil, err
	}

	binDir := filepath.Join(s.dir, t.Triple())
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return nil, err
	}
	binPath := filepath.Join(binDir, t.BinaryName("prefligit"))
	if err := os.WriteFile(binPath, []byte("binary for "+t.Triple()), 0o755); err != nil {
		return nil, err
	}

	out := &cargo.BuildOutput{Target: t, BinaryPath: binPath}
	if s.bindings {
		wheel := filepath.Join(binDir, fmt.Sprintf("prefligit-0.1.0-%s.whl", t.Triple()))
		if err := os.WriteFile(wheel, []byte("wheel"), 0o644); err != nil {
			return nil, err
		}
		out.WheelPaths = []string{wheel}
	}
	return out, nil
}

func (s *stubBuilder) Sdist(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.sdistErr != nil {
		return "", s.sdistErr
	}
	path := filepath.Join(s.dir, "prefligit-0.1.0.tar.gz")
	return path, os.WriteFile(path, []byte("sdist"), 0o644)
}

func (s *stubBuilder) HasBindings() bool { return s.bindings }

func testTargets() []target.Target {
	return []target.Target{
		{Platform: target.PlatformLinux, Arch: "x86_64"},
		{Platform: target.PlatformWindows, Arch: "x86_64"},
		{Platform: target.PlatformMacOS, Arch: "aarch64"},
	}
}

func newTestPipeline(t *testing.T, builder *stubBuilder) (*Pipeline, string) {
	t.Helper()
	outDir := t.TempDir()
	builder.dir = t.TempDir()
	return New(Options{
		Project:  "prefligit",
		Version:  "0.1.0",
		Targets:  testTargets(),
		Builder:  builder,
		Archiver: archive.NewArchiver("prefligit", outDir),
		Sdist:    true,
	}), outDir
}

func TestRunAllTargetsSucceed(t *testing.T) {
	builder := &stubBuilder{bindings: true}
	pipe, outDir := newTestPipeline(t, builder)

	bundle, report, err := pipe.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())

	for _, res := range report.Results {
		assert.Equal(t, StateCollected, res.State)
		require.NotNil(t, res.Archive)
		require.NotNil(t, res.Digest)
		assert.NoError(t, digest.Verify(res.Archive.Path, res.Digest.Path))
	}

	for _, tgt := range testTargets() {
		assert.FileExists(t, filepath.Join(outDir, tgt.ArchiveName("prefligit")))
		assert.Contains(t, bundle.BucketNames(), collect.ArtifactBucket(tgt))
		assert.Contains(t, bundle.BucketNames(), collect.WheelBucket(tgt))
	}
	assert.Contains(t, bundle.BucketNames(), collect.SdistBucket)
}

func TestRunIsolatesTargetFailure(t *testing.T) {
	failed := "x86_64-pc-windows-msvc"
	builder := &stubBuilder{
		failWith: map[string]error{
			failed: &cargo.ToolchainUnavailableError{
				Tool:   "cargo",
				Triple: failed,
				Reason: "target not installed",
			},
		},
	}
	pipe, outDir := newTestPipeline(t, builder)

	bundle, report, err := pipe.Run(context.Background())
	require.NoError(t, err, "per-target failures do not fail the invocation itself")
	require.NotNil(t, bundle)

	// The failure report names exactly the one failed target.
	assert.False(t, report.OK())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, failed, report.Failed()[0].Target.Triple())

	var unavailable *cargo.ToolchainUnavailableError
	require.True(t, errors.As(report.Failed()[0].Err, &unavailable))

	// The other two targets completed and are in the bundle.
	assert.Contains(t, bundle.BucketNames(), "artifacts-x86_64-unknown-linux-gnu")
	assert.Contains(t, bundle.BucketNames(), "artifacts-aarch64-apple-darwin")
	assert.NotContains(t, bundle.BucketNames(), "artifacts-"+failed)

	_, statErr := os.Stat(filepath.Join(outDir, "prefligit-"+failed+".zip"))
	assert.True(t, os.IsNotExist(statErr), "failed target left no archive behind")
}

func TestRunEveryTargetHasExactlyOneOutcome(t *testing.T) {
	builder := &stubBuilder{
		failWith: map[string]error{
			"aarch64-apple-darwin": &cargo.BuildFailureError{
				Triple: "aarch64-apple-darwin",
				Stage:  "cargo build",
				Output: "error[E0308]: mismatched types",
			},
		},
	}
	pipe, _ := newTestPipeline(t, builder)

	bundle, report, err := pipe.Run(context.Background())
	require.NoError(t, err)

	failed := make(map[string]bool)
	for _, res := range report.Failed() {
		failed[res.Target.Triple()] = true
	}
	for _, tgt := range testTargets() {
		inBundle := false
		for _, bucket := range bundle.BucketNames() {
			if bucket == collect.ArtifactBucket(tgt) {
				inBundle = true
			}
		}
		assert.NotEqual(t, inBundle, failed[tgt.Triple()],
			"%s must be in the bundle or the failure report, never both or neither", tgt)
	}
}

func TestRunCancelled(t *testing.T) {
	builder := &stubBuilder{}
	pipe, _ := newTestPipeline(t, builder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, report, err := pipe.Run(ctx)
	require.NoError(t, err, "cancellation is reported per target, not as an invocation error")
	assert.False(t, report.OK())
	for _, res := range report.Results {
		assert.Equal(t, StateFailed, res.State)
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestRunSdistFailureReported(t *testing.T) {
	builder := &stubBuilder{bindings: true, sdistErr: &cargo.BuildFailureError{
		Stage:  "maturin sdist",
		Output: "sdist build failed",
	}}
	pipe, _ := newTestPipeline(t, builder)

	bundle, report, err := pipe.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Error(t, report.SdistErr)
	assert.Empty(t, report.Failed(), "targets themselves all succeeded")
	assert.NotContains(t, bundle.BucketNames(), collect.SdistBucket)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "collected", StateCollected.String())
	assert.Equal(t, "failed", StateFailed.String())
}
