package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// packZip stores the executable at archive root with no wrapping
// directory, per Windows convention. The stem is unused: the archive
// file itself carries the target name.
func packZip(w io.Writer, _, binaryName, binaryPath string) error {
	zw := zip.NewWriter(w)

	f, err := os.Open(binaryPath)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     binaryName,
		Method:   zip.Deflate,
		Modified: epoch,
	}
	hdr.SetMode(0o755)

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("failed to write binary: %w", err)
	}

	return zw.Close()
}
