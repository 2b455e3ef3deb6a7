package scheduler

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Observer receives task lifecycle events from a Scheduler.
type Observer interface {
	TaskStarted(t *task.Task)
	TaskSkipped(t *task.Task)
	TaskSucceeded(t *task.Task, elapsed time.Duration)
	TaskFailed(t *task.Task, elapsed time.Duration, err error)
}

// LogObserver writes task events to a structured logger.
type LogObserver struct {
	Logger *zap.Logger

	// ShowCommand adds the full command line to start events.
	ShowCommand bool
}

// TaskStarted implements Observer.
func (o *LogObserver) TaskStarted(t *task.Task) {
	fields := []zap.Field{
		zap.String("task", t.Name),
		zap.Int("capacity", t.Capacity),
	}
	if o.ShowCommand {
		fields = append(fields, zap.String("command", t.Command))
	}
	o.Logger.Info("task started", fields...)
}

// TaskSkipped implements Observer.
func (o *LogObserver) TaskSkipped(t *task.Task) {
	o.Logger.Info("task up to date, skipped", zap.String("task", t.Name))
}

// TaskSucceeded implements Observer.
func (o *LogObserver) TaskSucceeded(t *task.Task, elapsed time.Duration) {
	o.Logger.Info("task completed",
		zap.String("task", t.Name),
		zap.Duration("duration", elapsed))
}

// TaskFailed implements Observer.
func (o *LogObserver) TaskFailed(t *task.Task, elapsed time.Duration, err error) {
	o.Logger.Error("task failed",
		zap.String("task", t.Name),
		zap.String("output", t.OutputPath),
		zap.Duration("duration", elapsed),
		zap.Error(err))
}

// CleanupObserver deletes the outputs of failed tasks, so that a partial
// log is never mistaken for a finished run on the next invocation.
type CleanupObserver struct {
	Logger *zap.Logger
}

// TaskStarted implements Observer.
func (o *CleanupObserver) TaskStarted(*task.Task) {}

// TaskSkipped implements Observer.
func (o *CleanupObserver) TaskSkipped(*task.Task) {}

// TaskSucceeded implements Observer.
func (o *CleanupObserver) TaskSucceeded(*task.Task, time.Duration) {}

// TaskFailed implements Observer.
func (o *CleanupObserver) TaskFailed(t *task.Task, _ time.Duration, _ error) {
	for _, path := range t.Outputs() {
		err := os.Remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if o.Logger != nil {
			o.Logger.Warn("could not remove output of failed task",
				zap.String("task", t.Name),
				zap.String("path", path),
				zap.Error(err))
		}
	}
}
