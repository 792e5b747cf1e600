package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bxb100/relpack/internal/plan"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the release output directory",
	Long: `Remove the output directory (archives, digests, wheels, and staged
upload buckets) for the current release plan.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runClean(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	planPath, err := plan.Find(cwd)
	if err != nil {
		return err
	}
	projectRoot := filepath.Dir(planPath)

	p, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	defaults, err := plan.LoadDefaults(projectRoot)
	if err != nil {
		return err
	}
	p.ApplyDefaults(defaults)

	outDir := p.OutputDirOrDefault()
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(projectRoot, outDir)
	}

	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		fmt.Printf("Nothing to clean: %s does not exist\n", outDir)
		return nil
	}

	if !cleanYes {
		fmt.Printf("This will remove %s. Continue? (y/N): ", outDir)
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	fmt.Printf("🗑️  Removing %s...\n", outDir)
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", outDir, err)
	}
	fmt.Println("✅ Clean completed successfully")
	return nil
}
