package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/simsweep/internal/logging"
	"github.com/wesleyorama2/simsweep/internal/sweep/engine"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan " + sweepUse,
		Short: "Print the tasks of a sweep without running them",
		Long: `Print the layouts, concurrency levels and simulator commands of a sweep
in the order they would run. Nothing is executed or written.`,
		Args: sweepArgs,
		RunE: planSweep,
	}
	addSweepFlags(cmd)
	return cmd
}

func planSweep(cmd *cobra.Command, args []string) error {
	sc, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{Sweep: sc, Logger: logging.Nop()})
	if err != nil {
		return err
	}
	plan, err := eng.Plan()
	if err != nil {
		return err
	}

	labels := make([]string, len(plan.Layouts))
	for i, l := range plan.Layouts {
		labels[i] = l.Label()
	}
	levels := make([]string, len(plan.Levels))
	for i, level := range plan.Levels {
		levels[i] = strconv.Itoa(level)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Layouts: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(w, "Levels:  %s\n", strings.Join(levels, ", "))
	fmt.Fprintf(w, "Tasks:   %d (seed %d)\n", len(plan.Tasks), plan.Seed)
	for _, t := range plan.Order {
		fmt.Fprintf(w, "%s: %s\n", t.Name, t.Command)
	}
	return nil
}
