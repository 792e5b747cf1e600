package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
)

// epoch is the fixed timestamp stamped on all archive entries, keeping
// the contained file set byte-identical across runs.
var epoch = time.Unix(0, 0)

// packTarGz writes the binary inside a single top-level directory named
// after the archive stem, so extraction yields one predictable directory.
func packTarGz(w io.Writer, stem, binaryName, binaryPath string) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     stem + "/",
		Mode:     0o755,
		ModTime:  epoch,
	}); err != nil {
		return fmt.Errorf("failed to write directory entry: %w", err)
	}

	f, err := os.Open(binaryPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     stem + "/" + binaryName,
		Mode:     0o755,
		Size:     info.Size(),
		ModTime:  epoch,
	}); err != nil {
		return fmt.Errorf("failed to write binary entry: %w", err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write binary: %w", err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
