package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestShell_CapturesStdout(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	tk := &task.Task{
		Name:       "echo",
		Command:    "echo 'Simulation time: 2.5'",
		OutputPath: filepath.Join(dir, "sub", "echo.log"),
	}

	var stderr bytes.Buffer
	s := &Shell{Stderr: &stderr}
	require.NoError(t, s.Run(context.Background(), tk))

	data, err := os.ReadFile(tk.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "Simulation time: 2.5\n", string(data))
	assert.Empty(t, stderr.String())
}

func TestShell_StderrForwarded(t *testing.T) {
	skipOnWindows(t)

	var stderr bytes.Buffer
	tk := &task.Task{
		Name:       "warn",
		Command:    "echo warning >&2",
		OutputPath: filepath.Join(t.TempDir(), "warn.log"),
	}
	require.NoError(t, (&Shell{Stderr: &stderr}).Run(context.Background(), tk))
	assert.Equal(t, "warning\n", stderr.String())
}

func TestShell_NonzeroExit(t *testing.T) {
	skipOnWindows(t)

	tk := &task.Task{
		Name:       "fail",
		Command:    "exit 3",
		OutputPath: filepath.Join(t.TempDir(), "fail.log"),
	}
	err := (&Shell{}).Run(context.Background(), tk)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "error = %v", err)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "fail", exitErr.Task)
	assert.Contains(t, err.Error(), "status 3")
}

func TestShell_Env(t *testing.T) {
	skipOnWindows(t)

	tk := &task.Task{
		Name:       "env",
		Command:    "echo $SIMSWEEP_TEST_VALUE",
		OutputPath: filepath.Join(t.TempDir(), "env.log"),
	}
	require.NoError(t, (&Shell{Env: []string{"SIMSWEEP_TEST_VALUE=42"}}).Run(context.Background(), tk))

	data, err := os.ReadFile(tk.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "42\n", string(data))
}
