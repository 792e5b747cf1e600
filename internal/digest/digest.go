// Package digest produces and verifies SHA-256 checksum files for
// release archives.
package digest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bxb100/relpack/pkg/xos"
)

// Extension is appended to the archive file name to form the digest
// file name.
const Extension = ".sha256"

// Digest is a checksum file asserting an archive's integrity.
type Digest struct {
	ArchivePath string
	Path        string
	SHA256      string
}

// IntegrityError reports a checksum mismatch: either the archive changed
// while being hashed or its recorded digest no longer matches its bytes.
type IntegrityError struct {
	Path string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("digest mismatch for %s: recorded %s, computed %s", e.Path, e.Want, e.Got)
}

// Generate computes the SHA-256 of the archive and writes
// "<archive>.sha256" next to it, atomically. The archive is hashed
// twice; a difference between passes means the file changed mid-read
// and fails with an IntegrityError.
//
// The file content is exactly "<64 lowercase hex>  <basename>\n".
// Downstream verification tooling parses this format; do not change it.
func Generate(archivePath string) (*Digest, error) {
	sum, err := hashFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", archivePath, err)
	}

	again, err := hashFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to re-hash %s: %w", archivePath, err)
	}
	if sum != again {
		return nil, &IntegrityError{Path: archivePath, Want: sum, Got: again}
	}

	digestPath := archivePath + Extension
	line := FormatLine(sum, filepath.Base(archivePath))
	if err := xos.WriteFile(digestPath, []byte(line), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", digestPath, err)
	}

	return &Digest{ArchivePath: archivePath, Path: digestPath, SHA256: sum}, nil
}

// Verify recomputes the archive's SHA-256 and compares it against the
// value recorded in the digest file.
func Verify(archivePath, digestPath string) error {
	recorded, name, err := readLine(digestPath)
	if err != nil {
		return err
	}
	if name != filepath.Base(archivePath) {
		return fmt.Errorf("digest file %s names %q, not %q", digestPath, name, filepath.Base(archivePath))
	}

	sum, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", archivePath, err)
	}
	if sum != recorded {
		return &IntegrityError{Path: archivePath, Want: recorded, Got: sum}
	}
	return nil
}

// FormatLine renders the fixed digest file content.
func FormatLine(hexSum, basename string) string {
	return fmt.Sprintf("%s  %s\n", hexSum, basename)
}

// readLine parses a digest file back into (hex sum, archive basename).
func readLine(digestPath string) (string, string, error) {
	f, err := os.Open(digestPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", "", fmt.Errorf("digest file %s is empty", digestPath)
	}
	line := scanner.Text()

	sum, name, ok := strings.Cut(line, "  ")
	if !ok || len(sum) != sha256.Size*2 {
		return "", "", fmt.Errorf("digest file %s is malformed: %q", digestPath, line)
	}
	return sum, name, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
