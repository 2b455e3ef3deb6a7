package task

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// Mode selects how concurrency is granted to the simulator.
type Mode string

const (
	// ModeThreads runs one simulator process with N threads.
	ModeThreads Mode = "threads"
	// ModeProcesses runs N simulator ranks under an MPI launcher.
	ModeProcesses Mode = "processes"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeThreads, ModeProcesses:
		return Mode(s), nil
	case "":
		return ModeThreads, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeThreads, ModeProcesses)
}

// CommandBuilder renders simulator command lines.
type CommandBuilder struct {
	Mode      Mode
	Simulator string // simulator binary, e.g. "sst"
	Launcher  string // MPI launcher for ModeProcesses, e.g. "mpirun"
	App       string // model configuration script

	Topology          string
	RemoteProbability float64
	Cycles            int
	ExtraArgs         []string
}

// Build returns the command that simulates l with the given concurrency,
// writing statistics to statsPath.
func (b CommandBuilder) Build(l layout.Layout, concurrency int, statsPath string) string {
	var sb strings.Builder

	switch b.Mode {
	case ModeProcesses:
		fmt.Fprintf(&sb, "%s -n %d %s -v ", b.Launcher, concurrency, b.Simulator)
	default:
		fmt.Fprintf(&sb, "%s -v -n %d ", b.Simulator, concurrency)
	}

	fmt.Fprintf(&sb, "%s -- %d", b.App, l.Components)
	if b.Topology != "" {
		sb.WriteString(" " + b.Topology)
	}
	if statsPath != "" {
		sb.WriteString(" " + statsPath)
	}
	fmt.Fprintf(&sb, " -i %d", l.EventsPerComponent)
	sb.WriteString(" -r " + strconv.FormatFloat(b.RemoteProbability, 'f', -1, 64))
	if b.Cycles > 0 {
		fmt.Fprintf(&sb, " -c %d", b.Cycles)
	}
	for _, arg := range b.ExtraArgs {
		sb.WriteString(" " + arg)
	}
	return sb.String()
}
