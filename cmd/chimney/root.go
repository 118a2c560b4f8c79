// Package main is the chimney binary's entry point: a cobra CLI exposing
// the serve/init/version subcommands named in spec.md §6. Grounded in
// cmd/cobra.go and cmd/commandfuncs.go's command-registration style,
// collapsed into a single small cmd/chimney tree since Chimney has no
// plugin/module system to register.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overridden at build time via -ldflags, matching the
// teacher's own practice of stamping a version string into the binary.
var buildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "chimney",
	Short: "Chimney serves static sites over HTTP and HTTPS",
	Long: `Chimney is a multi-site static-content edge server.

It reads a root configuration file plus one chimney.toml per site under
a sites directory, then serves each site's files over HTTP and,
optionally, HTTPS with automatically managed or manually supplied
certificates.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, initCmd, versionCmd)
}

// exitError carries a process exit code out of a cobra RunE, mirroring
// cmd/cobra.go's exitError/WrapCommandFuncForCobra pattern.
type exitError struct {
	ExitCode int
	Err      error
}

func (e *exitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exiting with status %d", e.ExitCode)
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error { return e.Err }
