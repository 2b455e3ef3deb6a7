package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the simsweep command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "simsweep",
		Short:   "Performance sweeps for event-driven simulators",
		Version: version,
		Long: `simsweep runs a simulator over a matrix of workload layouts and
concurrency levels under a fixed CPU budget, extracts an events-per-second
rate from every run and renders a summary table and comparison plot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	return root
}

// Execute runs the root command. Errors are printed in red to stderr.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}
