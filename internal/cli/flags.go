package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/simsweep/internal/logging"
	"github.com/wesleyorama2/simsweep/internal/sweep/config"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

const sweepUse = "APP ODIR [START STOP STEP]"

// addSweepFlags registers the flags shared by run and plan. Every flag
// overrides the matching value of the configuration file.
func addSweepFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "Sweep configuration file (YAML, JSON or TOML)")
	f.String("mode", "", "Execution mode: threads or processes (default threads)")
	f.IntP("runs", "r", 0, "Trials per layout and concurrency level (default 1)")
	f.BoolP("verbose", "v", false, "Show task commands and per-task rates")
	f.Int("capacity", 0, "CPU budget shared by running tasks (default: number of CPUs)")
	f.Uint64("seed", 0, "Seed of the randomized task order (default: random)")
	f.String("stats-format", "", "Statistics format: csv, json or log (default csv)")
	f.String("rows-path", "", "gjson path of the row array in JSON statistics")
	f.Int("components", 0, "Components of the first layout (default 128)")
	f.Int("events", 0, "Events per component of the first layout (default 8)")
	f.Int("bound", 0, "Component bound that ends the layout sequence (default STOP)")
	f.String("topology", "", "Simulated topology (default all-to-all)")
	f.Float64("remote-probability", 0, "Probability that an event targets another component (default 1.0)")
	f.Int("cycles", 0, "Simulated cycles (default 200000)")
	f.String("simulator", "", "Simulator command (default sst)")
	f.String("launcher", "", "MPI launcher for processes mode (default mpirun)")
	f.StringArray("env", nil, "KEY=value added to every task's environment (can be used multiple times)")
	f.Bool("keep-failed", false, "Keep the outputs of failed tasks")
	f.String("db", "", "SQLite database that accumulates sweep results")
	f.String("plot", "", "Plot file name inside ODIR; \"-\" disables the plot (default performance.png)")
	f.String("title", "", "Plot and report title")
	f.BoolP("quiet", "q", false, "Only print failures and the final status")
	f.Bool("no-color", false, "Disable colored output")
	f.String("log-level", "warn", "Log level: debug, info, warn or error")
	f.String("log-format", logging.FormatConsole, "Log format: console or json")
}

// sweepArgs accepts APP ODIR with an optional START STOP STEP range, or no
// positional arguments when a configuration file names them.
func sweepArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 2, 5:
		return nil
	}
	return fmt.Errorf("expected %s, got %d arguments", sweepUse, len(args))
}

// buildConfig loads the configuration file, if any, and applies the
// positional arguments and changed flags on top of it.
func buildConfig(cmd *cobra.Command, args []string) (*config.SweepConfig, error) {
	f := cmd.Flags()

	sc := &config.SweepConfig{}
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		sc = loaded
	} else if len(args) == 0 {
		return nil, fmt.Errorf("expected %s or --config", sweepUse)
	}

	if len(args) >= 2 {
		sc.App, sc.OutputDir = args[0], args[1]
	}
	if len(args) == 5 {
		r, err := parseRange(args[2:])
		if err != nil {
			return nil, err
		}
		sc.Range = &r
	}

	if f.Changed("mode") {
		sc.Mode, _ = f.GetString("mode")
	}
	if f.Changed("runs") {
		sc.Trials, _ = f.GetInt("runs")
	}
	if f.Changed("verbose") {
		sc.Output.Verbose, _ = f.GetBool("verbose")
	}
	if f.Changed("capacity") {
		sc.Scheduler.Capacity, _ = f.GetInt("capacity")
	}
	if f.Changed("seed") {
		sc.Scheduler.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("keep-failed") {
		sc.Scheduler.KeepFailedOutputs, _ = f.GetBool("keep-failed")
	}
	if f.Changed("stats-format") {
		sc.Stats.Format, _ = f.GetString("stats-format")
	}
	if f.Changed("rows-path") {
		sc.Stats.RowsPath, _ = f.GetString("rows-path")
	}
	if f.Changed("components") {
		sc.Layout.Components, _ = f.GetInt("components")
	}
	if f.Changed("events") {
		sc.Layout.EventsPerComponent, _ = f.GetInt("events")
	}
	if f.Changed("bound") {
		sc.Layout.Bound, _ = f.GetInt("bound")
	}
	if f.Changed("topology") {
		sc.Simulator.Topology, _ = f.GetString("topology")
	}
	if f.Changed("remote-probability") {
		p, _ := f.GetFloat64("remote-probability")
		sc.Simulator.RemoteProbability = &p
	}
	if f.Changed("cycles") {
		sc.Simulator.Cycles, _ = f.GetInt("cycles")
	}
	if f.Changed("simulator") {
		sc.Simulator.Command, _ = f.GetString("simulator")
	}
	if f.Changed("launcher") {
		sc.Simulator.Launcher, _ = f.GetString("launcher")
	}
	if f.Changed("env") {
		env, _ := f.GetStringArray("env")
		sc.Simulator.Env = append(sc.Simulator.Env, env...)
	}
	if f.Changed("db") {
		sc.Output.Database, _ = f.GetString("db")
	}
	if f.Changed("plot") {
		sc.Output.Plot, _ = f.GetString("plot")
	}
	if f.Changed("title") {
		sc.Output.Title, _ = f.GetString("title")
	}

	return sc, nil
}

func parseRange(args []string) (layout.Range, error) {
	names := []string{"START", "STOP", "STEP"}
	var vals [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return layout.Range{}, fmt.Errorf("invalid %s %q: must be an integer", names[i], a)
		}
		vals[i] = v
	}
	return layout.Range{Start: vals[0], Stop: vals[1], Step: vals[2]}, nil
}
