package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/simsweep/internal/logging"
	"github.com/wesleyorama2/simsweep/internal/output"
	"github.com/wesleyorama2/simsweep/internal/sweep/engine"
	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run " + sweepUse,
		Short: "Run a performance sweep",
		Long: `Run the simulator model APP once per layout, concurrency level and trial,
writing logs, statistics and reports into ODIR.

Without START STOP STEP the concurrency levels are 1 through the number of
CPUs. Runs whose log is newer than APP are reused, so an interrupted sweep
resumes where it stopped. The first failing run stops the sweep.

Examples:
  simsweep run models/benchmark.py results 1 16 1
  simsweep run --mode processes -r 3 models/benchmark.py results/mpi 2 8 2
  simsweep run --config sweep.yaml`,
		Args: sweepArgs,
		RunE: runSweep,
	}
	addSweepFlags(cmd)
	return cmd
}

// runSweep executes a sweep and prints its progress and summary.
func runSweep(cmd *cobra.Command, args []string) error {
	sc, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")

	logger, err := logging.New(logLevel, logFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	console := output.NewConsole(output.ConsoleConfig{
		Writer:  cmd.OutOrStdout(),
		Quiet:   quiet,
		Verbose: sc.Output.Verbose,
		NoColor: noColor,
	})

	eng, err := engine.New(engine.Config{
		Sweep:     sc,
		Logger:    logger,
		Observers: []scheduler.Observer{console},
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	plan, err := eng.Plan()
	if err != nil {
		return err
	}

	cfg := eng.Config()
	console.PrintHeader(output.SweepInfo{
		App:       cfg.App,
		OutputDir: cfg.OutputDir,
		Mode:      task.Mode(cfg.Mode),
		Layouts:   plan.Layouts,
		Levels:    plan.Levels,
		Trials:    cfg.Trials,
		Tasks:     len(plan.Tasks),
		Capacity:  cfg.Scheduler.Capacity,
		Seed:      plan.Seed,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, runErr := eng.Run(ctx)

	summary := output.Summary{Err: runErr}
	if result != nil {
		summary.Report = result.Report
		summary.Matrix = result.Matrix
		summary.Files = result.Files
	}
	console.PrintSummary(summary)

	return runErr
}
