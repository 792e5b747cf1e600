package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bxb100/relpack/internal/plan"
	"github.com/bxb100/relpack/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the release pipeline whenever the source tree changes",
	Long: `Watch the project source tree and re-run the release pipeline on
change. A change while a run is in flight cancels that run first, so at
most one pipeline is ever active and partial outputs are discarded.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	planPath, err := plan.Find(cwd)
	if err != nil {
		return err
	}
	projectRoot := filepath.Dir(planPath)

	watcher, err := watch.NewWatcher(watch.DefaultConfig(projectRoot))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Printf("👀 Watching %s for changes (ctrl-c to stop)...\n", projectRoot)

	var (
		cancelRun context.CancelFunc
		runDone   sync.WaitGroup
	)

	startRun := func() {
		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		runDone.Add(1)
		go func() {
			defer runDone.Done()
			if _, err := runPipelineOnce(runCtx); err != nil && runCtx.Err() == nil {
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			}
		}()
	}

	startRun()

	for {
		select {
		case <-ctx.Done():
			cancelRun()
			runDone.Wait()
			fmt.Println("\n👋 Stopped watching")
			return nil
		case path := <-watcher.Triggers():
			// Supersede the in-flight run before starting the next one.
			cancelRun()
			runDone.Wait()
			fmt.Printf("\n🔄 %s changed, re-running pipeline...\n", filepath.Base(path))
			startRun()
		case err := <-watcher.Errors():
			fmt.Fprintf(os.Stderr, "⚠️  Watcher error: %v\n", err)
		}
	}
}
