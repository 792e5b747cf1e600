package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/cargo"
	"github.com/bxb100/relpack/internal/pipeline"
	"github.com/bxb100/relpack/internal/plan"
	"github.com/bxb100/relpack/internal/target"
)

var (
	releasePlanPath string
	releaseOut      string
	releaseTargets  string
	releaseNoLock   bool
	releaseNoSdist  bool
	releaseVerbose  bool
	releaseCI       bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build, package, and stage release artifacts for all targets",
	Long: `Run the full release pipeline: compile the project for every target
in the release plan, wrap each binary into its platform archive, write
SHA-256 digest files, build wheels and the source distribution, and
stage everything into named upload buckets.

Targets build in parallel. A failing target never stops its siblings;
every target reports its own outcome and the command exits non-zero if
any of them failed.

Examples:
  relpack release                                 # Full pipeline from release.json
  relpack release --targets=x86_64-unknown-linux-gnu
  relpack release --out=/tmp/dist --no-sdist
  relpack release --ci                            # CI mode (no progress bar)`,
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	releaseCmd.Flags().StringVarP(&releasePlanPath, "plan", "p", "", "Path to release.json (default: search upward)")
	releaseCmd.Flags().StringVarP(&releaseOut, "out", "o", "", "Output directory root (overrides plan)")
	releaseCmd.Flags().StringVarP(&releaseTargets, "targets", "t", "", "Comma-separated target triples (overrides plan)")
	releaseCmd.Flags().BoolVar(&releaseNoLock, "no-locked", false, "Allow dependency resolution to drift from the lock file")
	releaseCmd.Flags().BoolVar(&releaseNoSdist, "no-sdist", false, "Skip the source distribution build")
	releaseCmd.Flags().BoolVarP(&releaseVerbose, "verbose", "v", false, "Show raw toolchain output")
	releaseCmd.Flags().BoolVar(&releaseCI, "ci", false, "CI mode (clean logs, no progress bar)")
}

func runRelease(cmd *cobra.Command, args []string) error {
	// Cancellation is cooperative: interrupts kill in-flight toolchain
	// processes and partial outputs are discarded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runPipelineOnce(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("release failed for %d target(s)", len(report.Failed()))
	}
	return nil
}

// runPipelineOnce resolves the plan and drives one full pipeline run.
// Shared between 'release' and 'watch'.
func runPipelineOnce(ctx context.Context) (*pipeline.Report, error) {
	planPath := releasePlanPath
	if planPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		planPath, err = plan.Find(cwd)
		if err != nil {
			return nil, err
		}
	}
	projectRoot := filepath.Dir(planPath)

	p, err := plan.Load(planPath)
	if err != nil {
		return nil, err
	}

	defaults, err := plan.LoadDefaults(projectRoot)
	if err != nil {
		return nil, err
	}
	p.ApplyDefaults(defaults)

	// Flag overrides win over plan and defaults.
	if releaseOut != "" {
		p.OutputDir = releaseOut
	}
	if releaseTargets != "" {
		p.Targets = splitTargets(releaseTargets)
	}
	if releaseNoLock {
		locked := false
		p.Locked = &locked
	}
	if releaseNoSdist {
		sdist := false
		p.Sdist = &sdist
	}

	// Unknown triples are a configuration error, reported before any
	// build starts.
	registry := target.DefaultRegistry()
	targets, err := registry.Resolve(p.Targets)
	if err != nil {
		return nil, err
	}

	outDir := p.OutputDirOrDefault()
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(projectRoot, outDir)
	}

	executor, err := cargo.NewExecutor(projectRoot, p.Project, cargo.Options{
		WheelRoot: filepath.Join(outDir, "wheels"),
		Locked:    p.LockedOrDefault(),
		Verbose:   releaseVerbose,
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("🚀 Releasing %s %s (%d targets)...\n", p.Project, p.Version, len(targets))

	pipe := pipeline.New(pipeline.Options{
		Project:  p.Project,
		Version:  p.Version,
		Targets:  targets,
		Builder:  executor,
		Archiver: archive.NewArchiver(p.Project, outDir),
		Sdist:    p.SdistOrDefault(),
		Progress: !releaseVerbose && !releaseCI,
	})

	bundle, report, err := pipe.Run(ctx)
	if err != nil {
		return report, err
	}

	fmt.Println()
	fmt.Print(report.Summary())

	if bundle != nil {
		stageDir := filepath.Join(outDir, "upload")
		if err := bundle.Stage(stageDir); err != nil {
			return report, fmt.Errorf("failed to stage artifacts: %w", err)
		}
		fmt.Printf("\n📦 Staged buckets in %s:\n", stageDir)
		for _, bucket := range bundle.BucketNames() {
			fmt.Printf("   - %s (%d files)\n", bucket, len(bundle.Files(bucket)))
		}
	}

	if report.OK() {
		fmt.Println("\n✅ Release completed successfully!")
	}
	return report, nil
}

func splitTargets(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
