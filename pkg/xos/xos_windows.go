//go:build windows
// +build windows

// Package xos provides atomic file operations for staging release
// artifacts. On Windows an atomic rename across volumes is not always
// possible, so writes go through a temp file in the target directory.
package xos

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file via a temp file + rename in
// the target directory.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	p, err := NewPendingFile(filename)
	if err != nil {
		return err
	}
	if _, err := p.Write(data); err != nil {
		p.Cleanup()
		return err
	}
	if err := p.Chmod(perm); err != nil {
		p.Cleanup()
		return err
	}
	return p.CloseAtomically()
}

// WriteReader writes data from a reader to the named file atomically.
func WriteReader(filename string, r io.Reader, perm os.FileMode) error {
	p, err := NewPendingFile(filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(p.tempFile, r); err != nil {
		p.Cleanup()
		return err
	}
	if err := p.Chmod(perm); err != nil {
		p.Cleanup()
		return err
	}
	return p.CloseAtomically()
}

// CreateDir creates a directory and all necessary parents.
func CreateDir(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// PendingFile is a file that will appear at its target path only once
// CloseAtomically succeeds. Use Cleanup to discard a partial write.
type PendingFile struct {
	tempFile *os.File
	tempName string
	path     string
	perm     os.FileMode
}

// NewPendingFile creates a new pending file for atomic writing.
func NewPendingFile(filename string) (*PendingFile, error) {
	dir := filepath.Dir(filename)
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: tempFile,
		tempName: tempFile.Name(),
		path:     filename,
		perm:     0644,
	}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// WriteString writes a string to the pending file.
func (p *PendingFile) WriteString(s string) (int, error) {
	return p.tempFile.WriteString(s)
}

// Chmod records the file mode to apply when the write completes.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	p.perm = perm
	return nil
}

// CloseAtomically completes the write by renaming the temp file into place.
func (p *PendingFile) CloseAtomically() error {
	if err := p.tempFile.Sync(); err != nil {
		p.tempFile.Close()
		os.Remove(p.tempName)
		return err
	}

	if err := p.tempFile.Close(); err != nil {
		os.Remove(p.tempName)
		return err
	}

	if err := os.Chmod(p.tempName, p.perm); err != nil {
		os.Remove(p.tempName)
		return err
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			os.Remove(p.tempName)
			return err
		}
	}

	return os.Rename(p.tempName, p.path)
}

// Cleanup discards the pending file without writing.
func (p *PendingFile) Cleanup() {
	p.tempFile.Close()
	os.Remove(p.tempName)
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}

// CopyFile copies a file atomically, preserving nothing but content and
// the given mode.
func CopyFile(src, dst string, perm os.FileMode) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteReader(dst, f, perm)
}
