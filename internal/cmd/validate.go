package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bxb100/relpack/internal/plan"
	"github.com/bxb100/relpack/internal/target"
)

var validatePlanPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the release plan",
	Long: `Validates release.json against its JSON Schema and checks that every
requested target triple is in the target registry.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validatePlanPath, "plan", "p", "", "Path to release.json (default: search upward)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	planPath := validatePlanPath
	if planPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		planPath, err = plan.Find(cwd)
		if err != nil {
			return err
		}
	}

	fmt.Printf("🔍 Validating %s...\n", planPath)

	p, err := plan.Load(planPath)
	if err != nil {
		return err
	}

	if _, err := target.DefaultRegistry().Resolve(p.Targets); err != nil {
		return err
	}

	fmt.Printf("✅ %s is valid (%s %s)\n", plan.FileName, p.Project, p.Version)
	return nil
}
