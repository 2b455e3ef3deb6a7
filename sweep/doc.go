// Package sweep provides a library API for running simulator performance
// sweeps.
//
// A sweep runs a simulator model once per workload layout, concurrency
// level and trial under a fixed CPU budget, extracts an events-per-second
// rate from every run and aggregates the trials into a matrix of mean
// rates.
//
// # Quick Start
//
//	cfg, _ := sweep.LoadConfig("sweep.yaml")
//	result, err := sweep.Run(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range result.Benchmarks {
//	    fmt.Println(b.Layout, b.Means)
//	}
//
// # Programmatic Configuration
//
//	cfg := &sweep.Config{
//	    App:       "models/benchmark.py",
//	    OutputDir: "results",
//	    Trials:    3,
//	    Range:     &sweep.Range{Start: 1, Stop: 8, Step: 1},
//	}
//
// Fields left empty take the defaults of the simsweep command.
package sweep
