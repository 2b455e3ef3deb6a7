package task

import (
	"path/filepath"

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// PlanConfig controls how tasks are materialised from a sweep matrix.
type PlanConfig struct {
	Layouts []layout.Layout
	Levels  []int
	Trials  int

	// Dir is where logs and statistics files are written.
	Dir string

	// StatsExt is the statistics file extension (".csv", ".json"), or
	// empty when the simulator writes no statistics files.
	StatsExt string

	// Inputs are files whose modification invalidates existing outputs.
	Inputs []string

	Builder CommandBuilder
}

// Plan creates one task per layout, concurrency level and trial, in that
// nesting order.
func Plan(cfg PlanConfig) []*Task {
	tasks := make([]*Task, 0, len(cfg.Layouts)*len(cfg.Levels)*cfg.Trials)
	for _, l := range cfg.Layouts {
		for _, level := range cfg.Levels {
			for trial := 0; trial < cfg.Trials; trial++ {
				name := Name(l, level, trial)
				logPath := filepath.Join(cfg.Dir, name+".log")

				var statsPath string
				if cfg.StatsExt != "" {
					statsPath = filepath.Join(cfg.Dir, name+cfg.StatsExt)
				}

				tasks = append(tasks, &Task{
					Name:        name,
					Command:     cfg.Builder.Build(l, level, statsPath),
					Capacity:    level,
					OutputPath:  logPath,
					StatsPath:   statsPath,
					Layout:      l,
					Concurrency: level,
					Trial:       trial,
					Condition: FileModification{
						Inputs:  cfg.Inputs,
						Outputs: []string{logPath},
					},
				})
			}
		}
	}
	return tasks
}
