package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bxb100/relpack/internal/target"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the targets releases are built for",
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-32s %-10s %-10s %s\n", "TRIPLE", "PLATFORM", "ARCH", "FORMAT")
	for _, t := range target.DefaultRegistry().List() {
		fmt.Printf("%-32s %-10s %-10s %s\n", t.Triple(), t.Platform, t.Arch, t.Format())
	}
	return nil
}
