// Command sam is a scripted integration-test harness: it loads a
// sam.yaml environment, brings components up, runs one or more
// JavaScript test scripts against them, and reports hierarchical
// pass/fail results. Root command plus subcommand files register
// themselves via init().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var configPath string

// rootCmd doubles as the legacy `sam -c <path>` alias: running sam with
// no subcommand executes the harness directly using --config/-c, the
// same flow `sam run` goes through.
var rootCmd = &cobra.Command{
	Use:   "sam",
	Short: "A scripted integration-test harness for distributed systems",
	Long: `sam brings up a declared environment of components, runs
JavaScript test scripts against it, and reports hierarchical pass/fail
results with timings.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	RunE:    runRun,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sam.yaml", "path to sam.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitErr carries the exit code a failed run should produce: 0 full
// pass, 1 any Fail/Errored, 2 configuration/load error. cobra's
// Execute only gives us the error, so the code travels inside it.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if e, ok := err.(*exitErr); ok {
		return e.code
	}
	return 2
}
