// Package archive wraps built binaries into distributable containers:
// tar.gz for linux and macos targets, zip for windows targets.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bxb100/relpack/internal/cargo"
	"github.com/bxb100/relpack/internal/target"
	"github.com/bxb100/relpack/pkg/xos"
)

// Archive is a finished container for one target's binary.
type Archive struct {
	Target     target.Target
	Path       string
	BinaryName string
}

// CreationError reports a failure to produce an archive for a target.
type CreationError struct {
	Triple string
	Path   string
	Err    error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create archive %s for %s: %v", e.Path, e.Triple, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// packer writes one binary into an archive container.
type packer func(w io.Writer, stem, binaryName, binaryPath string) error

// packers dispatches on archive format. Per-platform behavior branches
// here and nowhere else.
var packers = map[target.Format]packer{
	target.FormatTarGz: packTarGz,
	target.FormatZip:   packZip,
}

// Archiver produces archives into a single output directory. Archive
// names are distinct per target, so concurrent use is safe.
type Archiver struct {
	project string
	outDir  string
}

// NewArchiver creates an archiver writing into outDir.
func NewArchiver(project, outDir string) *Archiver {
	return &Archiver{project: project, outDir: outDir}
}

// Archive packages a build output into the target's container format.
// The archive is written atomically: it appears at its final path only
// when complete.
func (a *Archiver) Archive(out *cargo.BuildOutput) (*Archive, error) {
	t := out.Target
	stem := t.ArchiveStem(a.project)
	archivePath := filepath.Join(a.outDir, t.ArchiveName(a.project))
	binaryName := t.BinaryName(a.project)

	if info, err := os.Stat(out.BinaryPath); err != nil || info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is a directory", out.BinaryPath)
		}
		return nil, &CreationError{Triple: t.Triple(), Path: archivePath, Err: err}
	}

	if err := xos.CreateDir(a.outDir, 0o755); err != nil {
		return nil, &CreationError{Triple: t.Triple(), Path: archivePath, Err: err}
	}

	pack, ok := packers[t.Format()]
	if !ok {
		return nil, &CreationError{
			Triple: t.Triple(),
			Path:   archivePath,
			Err:    fmt.Errorf("no packer for format %s", t.Format()),
		}
	}

	pending, err := xos.NewPendingFile(archivePath)
	if err != nil {
		return nil, &CreationError{Triple: t.Triple(), Path: archivePath, Err: err}
	}

	if err := pack(pending, stem, binaryName, out.BinaryPath); err != nil {
		pending.Cleanup()
		return nil, &CreationError{Triple: t.Triple(), Path: archivePath, Err: err}
	}

	if err := pending.CloseAtomically(); err != nil {
		return nil, &CreationError{Triple: t.Triple(), Path: archivePath, Err: err}
	}

	return &Archive{Target: t, Path: archivePath, BinaryName: binaryName}, nil
}
