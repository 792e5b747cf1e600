// Package pipeline orchestrates the release-artifact pipeline: it fans
// out build → archive → digest per target, runs the sdist build as its
// own task, and fans the results into one publishable artifact bundle.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/cargo"
	"github.com/bxb100/relpack/internal/collect"
	"github.com/bxb100/relpack/internal/digest"
	"github.com/bxb100/relpack/internal/target"
)

// stagesPerTarget counts the pipeline stages tracked per target for
// progress reporting: build, archive, digest.
const stagesPerTarget = 3

// Builder produces native binaries, wheels, and the source distribution.
// *cargo.Executor is the production implementation.
type Builder interface {
	Build(ctx context.Context, t target.Target) (*cargo.BuildOutput, error)
	Sdist(ctx context.Context) (string, error)
	HasBindings() bool
}

// CollectionIncompleteError reports targets that were attempted but
// produced no terminal outcome — a correctness bug, never expected.
type CollectionIncompleteError struct {
	Triples []string
}

func (e *CollectionIncompleteError) Error() string {
	return fmt.Sprintf("targets produced no terminal outcome: %v", e.Triples)
}

// Options configures a pipeline run.
type Options struct {
	Project  string
	Version  string
	Targets  []target.Target
	Builder  Builder
	Archiver *archive.Archiver

	// Sdist enables the project-wide source distribution build.
	Sdist bool

	// Progress renders a progress bar on stderr.
	Progress bool
}

// Pipeline drives all per-target pipelines plus the sdist task.
type Pipeline struct {
	opts Options
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes the pipeline. All per-target tasks run concurrently and
// independently; a failing target never aborts its siblings. Run waits
// for every task before aggregating, so the report names each attempted
// target exactly once. Cancelling ctx stops in-flight toolchain
// processes and discards partial outputs.
//
// The bundle contains every target that completed. The error is non-nil
// only for invocation-level problems (aggregation bugs, collector
// failures); per-target failures are reported via the Report.
func (p *Pipeline) Run(ctx context.Context) (*collect.Bundle, *Report, error) {
	results := make([]*Result, len(p.opts.Targets))
	for i, t := range p.opts.Targets {
		results[i] = &Result{Target: t, State: StatePending}
	}

	buildSdist := p.opts.Sdist && p.opts.Builder.HasBindings()

	var bar *progressbar.ProgressBar
	if p.opts.Progress {
		total := len(p.opts.Targets) * stagesPerTarget
		if buildSdist {
			total++
		}
		bar = newProgressBar(total)
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, res := range results {
		res := res
		g.Go(func() error {
			p.runTarget(ctx, res, bar)
			return nil
		})
	}

	var sdistPath string
	var sdistErr error
	if buildSdist {
		g.Go(func() error {
			sdistPath, sdistErr = p.opts.Builder.Sdist(ctx)
			step(bar)
			return nil
		})
	}

	// Goroutines record outcomes instead of returning errors, so Wait
	// never short-circuits and every target reports its own status.
	g.Wait()
	if bar != nil {
		bar.Finish()
	}

	report := &Report{Results: results, Sdist: sdistPath, SdistErr: sdistErr}

	var collected []collect.TargetResult
	var incomplete []string
	for _, res := range results {
		switch res.State {
		case StateCollected:
			var wheels []string
			if res.Output != nil {
				wheels = res.Output.WheelPaths
			}
			collected = append(collected, collect.TargetResult{
				Target:  res.Target,
				Archive: res.Archive,
				Digest:  res.Digest,
				Wheels:  wheels,
			})
		case StateFailed:
			// Accounted for in the report.
		default:
			incomplete = append(incomplete, res.Target.Triple())
		}
	}
	if len(incomplete) > 0 {
		return nil, report, &CollectionIncompleteError{Triples: incomplete}
	}

	bundle, err := collect.Collect(p.opts.Project, p.opts.Version, collected, sdistPath)
	if err != nil {
		return nil, report, err
	}
	return bundle, report, nil
}

// runTarget advances one target through its state machine. Each stage
// consumes the prior stage's output; any failure is terminal for this
// target only.
func (p *Pipeline) runTarget(ctx context.Context, res *Result, bar *progressbar.ProgressBar) {
	res.State = StateBuilding
	out, err := p.opts.Builder.Build(ctx, res.Target)
	if err != nil {
		res.fail(err)
		return
	}
	res.Output = out
	step(bar)

	res.State = StateArchiving
	arch, err := p.opts.Archiver.Archive(out)
	if err != nil {
		res.fail(err)
		return
	}
	res.Archive = arch
	step(bar)

	res.State = StateDigesting
	d, err := digest.Generate(arch.Path)
	if err != nil {
		// A digest that cannot be produced must not be published; the
		// archive without its checksum is useless, so drop it.
		os.Remove(arch.Path)
		res.fail(err)
		return
	}
	res.Digest = d
	step(bar)

	res.State = StateCollected
}

func step(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Packaging"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionSpinnerType(14),
	)
}
