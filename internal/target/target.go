// Package target defines the build targets the release pipeline supports.
package target

import "fmt"

// Platform is the operating system family of a build target.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
)

// Format is the archive container used for a target's binary.
type Format string

const (
	FormatTarGz Format = "tar.gz"
	FormatZip   Format = "zip"
)

// ArchiveFormat returns the archive container for a platform.
// Windows binaries ship as zip, everything else as tar.gz.
func (p Platform) ArchiveFormat() Format {
	if p == PlatformWindows {
		return FormatZip
	}
	return FormatTarGz
}

// Target is one (platform, architecture) combination the pipeline
// produces artifacts for.
type Target struct {
	Platform Platform
	Arch     string
}

// Triple returns the toolchain target triple for the target,
// e.g. "x86_64-unknown-linux-gnu".
func (t Target) Triple() string {
	switch t.Platform {
	case PlatformLinux:
		return fmt.Sprintf("%s-unknown-linux-gnu", t.Arch)
	case PlatformWindows:
		return fmt.Sprintf("%s-pc-windows-msvc", t.Arch)
	case PlatformMacOS:
		return fmt.Sprintf("%s-apple-darwin", t.Arch)
	default:
		return fmt.Sprintf("%s-%s", t.Arch, t.Platform)
	}
}

// Format returns the archive container for the target.
func (t Target) Format() Format {
	return t.Platform.ArchiveFormat()
}

// ArchiveStem returns the archive name without extension,
// e.g. "prefligit-x86_64-unknown-linux-gnu".
func (t Target) ArchiveStem(project string) string {
	return fmt.Sprintf("%s-%s", project, t.Triple())
}

// ArchiveName returns the full archive file name for the target.
func (t Target) ArchiveName(project string) string {
	return fmt.Sprintf("%s.%s", t.ArchiveStem(project), t.Format())
}

// BinaryName returns the name of the built executable for the target.
func (t Target) BinaryName(project string) string {
	if t.Platform == PlatformWindows {
		return project + ".exe"
	}
	return project
}

func (t Target) String() string {
	return t.Triple()
}
