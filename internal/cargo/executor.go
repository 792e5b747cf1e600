// Package cargo drives the native build toolchain (cargo for binaries,
// maturin for Python wheels and the source distribution).
package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bxb100/relpack/internal/target"
)

// BuildOutput is the result of building one target: the compiled binary
// plus any wheels built alongside it. Immutable once returned.
type BuildOutput struct {
	Target     target.Target
	BinaryPath string
	WheelPaths []string
}

// ToolchainUnavailableError reports that the host cannot build for a
// requested target (missing tool or missing cross-compilation support).
type ToolchainUnavailableError struct {
	Tool   string
	Triple string
	Reason string
}

func (e *ToolchainUnavailableError) Error() string {
	if e.Triple == "" {
		return fmt.Sprintf("%s unavailable: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("%s cannot build for %s: %s", e.Tool, e.Triple, e.Reason)
}

// BuildFailureError reports a compiler or wheel-builder error for one target.
type BuildFailureError struct {
	Triple string
	Stage  string
	Output string
}

func (e *BuildFailureError) Error() string {
	return fmt.Sprintf("%s failed for %s:\n%s", e.Stage, e.Triple, e.Output)
}

// Executor handles cargo and maturin command execution for one project.
type Executor struct {
	projectRoot string
	project     string
	cargoPath   string
	maturinPath string
	wheelRoot   string
	locked      bool
	verbose     bool

	targetsOnce      sync.Once
	installedTargets map[string]bool
}

// Options configures an Executor.
type Options struct {
	// WheelRoot is the directory wheel builds write into (one
	// subdirectory per target, plus "sdist").
	WheelRoot string

	// Locked pins dependency resolution to the committed lock file so
	// builds are reproducible given the same source tree.
	Locked bool

	// Verbose streams raw toolchain output instead of summaries.
	Verbose bool
}

// NewExecutor creates an executor for the project rooted at projectRoot.
// cargo must be on PATH (or in ~/.cargo/bin); maturin is optional and
// only required when the project ships Python bindings.
func NewExecutor(projectRoot, project string, opts Options) (*Executor, error) {
	cargoPath, err := findTool("cargo")
	if err != nil {
		return nil, &ToolchainUnavailableError{Tool: "cargo", Reason: err.Error()}
	}

	// Missing maturin only matters once a wheel or sdist build is requested.
	maturinPath, _ := findTool("maturin")

	return &Executor{
		projectRoot: projectRoot,
		project:     project,
		cargoPath:   cargoPath,
		maturinPath: maturinPath,
		wheelRoot:   opts.WheelRoot,
		locked:      opts.Locked,
		verbose:     opts.Verbose,
	}, nil
}

// HasBindings reports whether the project exposes a Python binding layer
// (a pyproject.toml next to Cargo.toml).
func (e *Executor) HasBindings() bool {
	_, err := os.Stat(filepath.Join(e.projectRoot, "pyproject.toml"))
	return err == nil
}

// Build compiles the project for one target and, if the project has
// Python bindings, builds its wheel. On any failure no partial output is
// returned and freshly written wheels are removed.
func (e *Executor) Build(ctx context.Context, t target.Target) (*BuildOutput, error) {
	if err := e.checkTarget(ctx, t); err != nil {
		return nil, err
	}

	args := []string{"build", "--release", "--target", t.Triple()}
	if e.locked {
		args = append(args, "--locked")
	}
	if out, err := e.run(ctx, e.cargoPath, args...); err != nil {
		return nil, classify("cargo build", t.Triple(), out, err)
	}

	binaryPath := BinaryPath(e.projectRoot, t, e.project)
	info, err := os.Stat(binaryPath)
	if err != nil {
		return nil, &BuildFailureError{
			Triple: t.Triple(),
			Stage:  "cargo build",
			Output: fmt.Sprintf("expected binary missing: %s", binaryPath),
		}
	}
	if t.Platform != target.PlatformWindows && info.Mode()&0111 == 0 {
		return nil, &BuildFailureError{
			Triple: t.Triple(),
			Stage:  "cargo build",
			Output: fmt.Sprintf("built binary is not executable: %s", binaryPath),
		}
	}

	out := &BuildOutput{Target: t, BinaryPath: binaryPath}

	if e.HasBindings() {
		wheels, err := e.buildWheel(ctx, t)
		if err != nil {
			// Binary built, wheel failed: the whole build fails atomically.
			return nil, err
		}
		out.WheelPaths = wheels
	}

	return out, nil
}

// buildWheel runs maturin for one target, writing into a per-target
// directory under the wheel root. The directory is removed on failure.
func (e *Executor) buildWheel(ctx context.Context, t target.Target) ([]string, error) {
	if e.maturinPath == "" {
		return nil, &ToolchainUnavailableError{Tool: "maturin", Triple: t.Triple(), Reason: "not found on PATH"}
	}

	outDir := filepath.Join(e.wheelRoot, t.Triple())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create wheel directory: %w", err)
	}

	args := []string{"build", "--release", "--target", t.Triple(), "--out", outDir}
	if e.locked {
		args = append(args, "--locked")
	}
	if out, err := e.run(ctx, e.maturinPath, args...); err != nil {
		os.RemoveAll(outDir)
		return nil, classify("maturin build", t.Triple(), out, err)
	}

	wheels, err := filepath.Glob(filepath.Join(outDir, "*.whl"))
	if err != nil || len(wheels) == 0 {
		os.RemoveAll(outDir)
		return nil, &BuildFailureError{
			Triple: t.Triple(),
			Stage:  "maturin build",
			Output: fmt.Sprintf("no wheel produced in %s", outDir),
		}
	}
	return wheels, nil
}

// Sdist builds the project-wide source distribution. It is independent
// of any target and may run concurrently with target builds.
func (e *Executor) Sdist(ctx context.Context) (string, error) {
	if e.maturinPath == "" {
		return "", &ToolchainUnavailableError{Tool: "maturin", Reason: "not found on PATH"}
	}

	outDir := filepath.Join(e.wheelRoot, "sdist")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create sdist directory: %w", err)
	}

	if out, err := e.run(ctx, e.maturinPath, "sdist", "--out", outDir); err != nil {
		os.RemoveAll(outDir)
		return "", classify("maturin sdist", "", out, err)
	}

	dists, err := filepath.Glob(filepath.Join(outDir, "*.tar.gz"))
	if err != nil || len(dists) == 0 {
		os.RemoveAll(outDir)
		return "", &BuildFailureError{
			Stage:  "maturin sdist",
			Output: fmt.Sprintf("no sdist produced in %s", outDir),
		}
	}
	return dists[0], nil
}

// checkTarget verifies the cross-compilation target is installed when
// rustup is available. Without rustup the build itself reports the miss.
func (e *Executor) checkTarget(ctx context.Context, t target.Target) error {
	e.targetsOnce.Do(func() {
		rustup, err := exec.LookPath("rustup")
		if err != nil {
			return
		}
		cmd := exec.CommandContext(ctx, rustup, "target", "list", "--installed")
		cmd.Dir = e.projectRoot
		out, err := cmd.Output()
		if err != nil {
			return
		}
		e.installedTargets = make(map[string]bool)
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			e.installedTargets[strings.TrimSpace(line)] = true
		}
	})

	if e.installedTargets != nil && !e.installedTargets[t.Triple()] {
		return &ToolchainUnavailableError{
			Tool:   "cargo",
			Triple: t.Triple(),
			Reason: fmt.Sprintf("target not installed (run 'rustup target add %s')", t.Triple()),
		}
	}
	return nil
}

// run executes a toolchain command, returning its combined output.
func (e *Executor) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.projectRoot

	var buf bytes.Buffer
	if e.verbose {
		cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		// The process was killed by cancellation, not by a real failure.
		return buf.String(), ctx.Err()
	}
	return buf.String(), err
}

// classify turns a failed toolchain invocation into the pipeline's error
// taxonomy: missing cross-compilation support is a toolchain problem,
// everything else is a build failure.
func classify(stage, triple, output string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isToolchainMiss(output) {
		return &ToolchainUnavailableError{
			Tool:   strings.Fields(stage)[0],
			Triple: triple,
			Reason: NewErrorTranslator().Translate(output),
		}
	}
	return &BuildFailureError{
		Triple: triple,
		Stage:  stage,
		Output: NewErrorTranslator().Translate(output),
	}
}

// isToolchainMiss matches cargo/rustc output produced when the requested
// target triple has no installed toolchain support.
func isToolchainMiss(output string) bool {
	for _, marker := range []string{
		"may not be installed",
		"target may not be supported",
		"no such command",
		"error: toolchain",
	} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// BinaryPath returns where cargo places the release binary for a target.
func BinaryPath(projectRoot string, t target.Target, project string) string {
	return filepath.Join(projectRoot, "target", t.Triple(), "release", t.BinaryName(project))
}

// findTool locates a toolchain binary on PATH, falling back to the
// conventional ~/.cargo/bin install location.
func findTool(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidate := filepath.Join(home, ".cargo", "bin", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found on PATH", name)
}
