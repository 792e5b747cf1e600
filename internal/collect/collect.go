// Package collect aggregates per-target outputs into named buckets
// ready for upload.
package collect

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/digest"
	"github.com/bxb100/relpack/internal/target"
	"github.com/bxb100/relpack/pkg/xos"
)

// SdistBucket holds the single source distribution.
const SdistBucket = "wheels-sdist"

// ArtifactBucket names the bucket holding one target's archive and digest.
func ArtifactBucket(t target.Target) string {
	return "artifacts-" + t.Triple()
}

// WheelBucket names the bucket holding one target's wheels, grouped by
// platform family.
func WheelBucket(t target.Target) string {
	return fmt.Sprintf("wheels-%s-%s", t.Platform, t.Triple())
}

// TargetResult is one target's complete output handed to the collector.
// The collector takes read-only ownership for the bundle's lifetime.
type TargetResult struct {
	Target  target.Target
	Archive *archive.Archive
	Digest  *digest.Digest
	Wheels  []string
}

// Bundle is the complete, named set of outputs ready for publication.
// Assembled once; never mutated afterward.
type Bundle struct {
	Project string
	Version string
	buckets map[string][]string
}

// Collect groups per-target results, wheels, and the optional sdist into
// upload buckets.
func Collect(project, version string, results []TargetResult, sdist string) (*Bundle, error) {
	b := &Bundle{
		Project: project,
		Version: version,
		buckets: make(map[string][]string),
	}

	for _, r := range results {
		if r.Archive == nil || r.Digest == nil {
			return nil, fmt.Errorf("incomplete result for %s: missing archive or digest", r.Target)
		}
		bucket := ArtifactBucket(r.Target)
		b.buckets[bucket] = append(b.buckets[bucket], r.Archive.Path, r.Digest.Path)

		if len(r.Wheels) > 0 {
			wb := WheelBucket(r.Target)
			b.buckets[wb] = append(b.buckets[wb], r.Wheels...)
		}
	}

	if sdist != "" {
		b.buckets[SdistBucket] = []string{sdist}
	}

	return b, nil
}

// BucketNames returns all bucket names in sorted order.
func (b *Bundle) BucketNames() []string {
	names := make([]string, 0, len(b.buckets))
	for name := range b.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the file paths collected into a bucket.
func (b *Bundle) Files(bucket string) []string {
	out := make([]string, len(b.buckets[bucket]))
	copy(out, b.buckets[bucket])
	return out
}

// Stage materializes the bundle under dir, one directory per bucket.
// This layout is what an upload sink consumes.
func (b *Bundle) Stage(dir string) error {
	for _, bucket := range b.BucketNames() {
		bucketDir := filepath.Join(dir, bucket)
		if err := xos.CreateDir(bucketDir, 0o755); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		for _, file := range b.buckets[bucket] {
			dst := filepath.Join(bucketDir, filepath.Base(file))
			if err := xos.CopyFile(file, dst, 0o644); err != nil {
				return fmt.Errorf("failed to stage %s into %s: %w", file, bucket, err)
			}
		}
	}
	return nil
}
