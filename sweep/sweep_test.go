package sweep_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/simsweep/sweep"
)

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "model.py")
	require.NoError(t, os.WriteFile(app, []byte("# model\n"), 0644))

	cfg := &sweep.Config{
		App:       app,
		OutputDir: filepath.Join(dir, "out"),
		Range:     &sweep.Range{Start: 1, Stop: 2, Step: 1},
	}
	cfg.Layout.Components = 4
	cfg.Layout.EventsPerComponent = 1
	cfg.Scheduler.Capacity = 2
	cfg.Output.Plot = "-"

	// Every run takes 4 simulated seconds for 100 events per CPU.
	runTask := func(ctx context.Context, tk *sweep.Task) error {
		if err := os.WriteFile(tk.OutputPath, []byte("Simulation time: 4\n"), 0644); err != nil {
			return err
		}
		var sb strings.Builder
		sb.WriteString("ComponentName, Count.u64\n")
		for i := 0; i < tk.Layout.Components; i++ {
			fmt.Fprintf(&sb, "c%d, %d\n", i, 100*tk.Concurrency/tk.Layout.Components)
		}
		return os.WriteFile(tk.StatsPath, []byte(sb.String()), 0644)
	}

	result, err := sweep.NewRunner(cfg).WithTaskRunner(runTask).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, result.Levels)
	assert.Equal(t, 4, result.Ran)
	assert.Empty(t, result.Plot)
	assert.FileExists(t, result.Summary)

	require.Len(t, result.Benchmarks, 2)
	assert.Equal(t, "4x1", result.Benchmarks[0].Layout)
	assert.Equal(t, []float64{25, 50}, result.Benchmarks[0].Means)
	assert.Equal(t, "2x2", result.Benchmarks[1].Layout)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := sweep.Run(context.Background(), &sweep.Config{})
	assert.Error(t, err)
}

func TestLoadConfig_NotFound(t *testing.T) {
	_, err := sweep.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
