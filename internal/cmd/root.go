// Package cmd implements the relpack CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relpack",
	Short: "relpack - multi-target release-artifact pipeline",
	Long: `relpack compiles a project for every supported platform/architecture
combination, packages each build into a distributable archive (tar.gz on
linux/macos, zip on windows), computes SHA-256 digests, and stages
everything for publication alongside wheels and a source distribution.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Commands register themselves in their respective files via init().
}
