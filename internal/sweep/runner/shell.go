// Package runner executes simulation tasks as operating system processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// ExitError reports a task process that exited with a nonzero status.
type ExitError struct {
	Task string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Task, e.Code)
}

// Shell runs task commands through a POSIX shell, capturing standard output
// into the task's output file.
type Shell struct {
	// Shell is the interpreter, "sh" when empty.
	Shell string

	// Stderr receives the processes' standard error. Discarded when nil.
	Stderr io.Writer

	// Dir is the working directory of spawned processes.
	Dir string

	// Env is appended to the current environment.
	Env []string
}

// Run implements scheduler.Runner.
func (s *Shell) Run(ctx context.Context, t *task.Task) error {
	if err := os.MkdirAll(filepath.Dir(t.OutputPath), 0755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", t.Name, err)
	}

	out, err := os.Create(t.OutputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", t.Command)
	cmd.Stdout = out
	cmd.Stderr = s.Stderr
	cmd.Dir = s.Dir
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Task: t.Name, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", t.Name, err)
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("flush output file: %w", err)
	}
	return nil
}
