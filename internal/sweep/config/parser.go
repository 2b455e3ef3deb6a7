package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/simsweep/internal/sweep/extract"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Sweep defaults.
const (
	DefaultComponents         = 128
	DefaultEventsPerComponent = 8
	DefaultTrials             = 1
	DefaultSimulator          = "sst"
	DefaultLauncher           = "mpirun"
	DefaultTopology           = "all-to-all"
	DefaultRemoteProbability  = 1.0
	DefaultCycles             = 200000
)

// LoadConfig loads a sweep configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//   - .toml -> TOML
//
// Returns the parsed SweepConfig or an error if parsing fails.
func LoadConfig(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension. The document is checked
// against the embedded JSON schema before it is decoded.
func ParseConfig(data []byte, path string) (*SweepConfig, error) {
	var config SweepConfig

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		if err := checkSchema(doc); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".toml":
		var doc map[string]interface{}
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
		if err := checkSchema(doc); err != nil {
			return nil, err
		}
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			if ext == ".yaml" || ext == ".yml" || ext == "" {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
			return nil, fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
		if doc != nil {
			if err := checkSchema(doc); err != nil {
				return nil, err
			}
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &config, nil
}

// ApplyDefaults fills unset fields. The layout bound defaults to the stop
// of the concurrency range, so it must run after the range is known.
func (c *SweepConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = string(task.ModeThreads)
	}
	if c.Trials == 0 {
		c.Trials = DefaultTrials
	}
	if c.Range == nil {
		r := layout.HostRange()
		c.Range = &r
	}
	if c.Range.Step == 0 {
		c.Range.Step = 1
	}

	if c.Layout.Components == 0 {
		c.Layout.Components = DefaultComponents
	}
	if c.Layout.EventsPerComponent == 0 {
		c.Layout.EventsPerComponent = DefaultEventsPerComponent
	}
	if c.Layout.Bound == 0 {
		c.Layout.Bound = c.Range.Stop
	}

	if c.Simulator.Command == "" {
		c.Simulator.Command = DefaultSimulator
	}
	if c.Simulator.Launcher == "" {
		c.Simulator.Launcher = DefaultLauncher
	}
	if c.Simulator.Topology == "" {
		c.Simulator.Topology = DefaultTopology
	}
	if c.Simulator.RemoteProbability == nil {
		p := DefaultRemoteProbability
		c.Simulator.RemoteProbability = &p
	}
	if c.Simulator.Cycles == 0 {
		c.Simulator.Cycles = DefaultCycles
	}

	if c.Stats.Format == "" {
		c.Stats.Format = string(extract.ShapeCSV)
	}
	if c.Stats.TimeMarker == "" {
		c.Stats.TimeMarker = extract.DefaultTimeMarker
	}
	if c.Stats.CountColumn == "" {
		c.Stats.CountColumn = extract.DefaultCountColumn
	}

	if c.Scheduler.Capacity == 0 {
		c.Scheduler.Capacity = runtime.NumCPU()
	}
}

// StartLayout is the first layout of the sweep.
func (c *SweepConfig) StartLayout() layout.Layout {
	return layout.Layout{Components: c.Layout.Components, EventsPerComponent: c.Layout.EventsPerComponent}
}

// Layouts generates the layout sequence.
func (c *SweepConfig) Layouts() []layout.Layout {
	return layout.Generate(c.StartLayout(), c.Layout.Bound)
}

// Levels expands the concurrency range.
func (c *SweepConfig) Levels() ([]int, error) {
	if c.Range == nil {
		return layout.HostRange().Levels()
	}
	return c.Range.Levels()
}

// CommandBuilder returns the simulator command builder for the sweep.
func (c *SweepConfig) CommandBuilder() task.CommandBuilder {
	remote := DefaultRemoteProbability
	if c.Simulator.RemoteProbability != nil {
		remote = *c.Simulator.RemoteProbability
	}
	return task.CommandBuilder{
		Mode:              task.Mode(c.Mode),
		Simulator:         c.Simulator.Command,
		Launcher:          c.Simulator.Launcher,
		App:               c.App,
		Topology:          c.Simulator.Topology,
		RemoteProbability: remote,
		Cycles:            c.Simulator.Cycles,
		ExtraArgs:         c.Simulator.ExtraArgs,
	}
}

// ExtractConfig returns the result extraction settings.
func (c *SweepConfig) ExtractConfig() extract.Config {
	return extract.Config{
		Shape:       extract.Shape(c.Stats.Format),
		TimeMarker:  c.Stats.TimeMarker,
		CountColumn: c.Stats.CountColumn,
		RowsPath:    c.Stats.RowsPath,
	}
}
