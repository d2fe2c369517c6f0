// Package cmd wires rpmsynth's subcommands together with cobra, the way the
// teacher's own cmd package was scaffolded for (build.go/monitor.go existed
// as cobra.Command values before main.go grew its own flag parsing).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpmsynth/config"
)

var (
	configDir string
	profile   string
)

// rootCmd is the entry point every subcommand attaches to.
var rootCmd = &cobra.Command{
	Use:   "rpmsynth",
	Short: "Dependency-ordered RPM build coordinator",
	Long: `rpmsynth resolves build- and run-time dependencies between RPM base
packages, linearizes them into a single build order, and dispatches that
order to worker processes over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default /etc/rpmsynth)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "configuration profile/section to overlay")
}

// Execute runs the root command; main.go's only job is to call this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configDir, profile)
}
