package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

type condFunc func() (bool, error)

func (f condFunc) Satisfied() (bool, error) { return f() }

func makeTasks(capacities ...int) []*task.Task {
	tasks := make([]*task.Task, len(capacities))
	for i, c := range capacities {
		tasks[i] = &task.Task{
			Name:     fmt.Sprintf("task-%d", i),
			Command:  "true",
			Capacity: c,
		}
	}
	return tasks
}

// recordingObserver counts events.
type recordingObserver struct {
	mu                                   sync.Mutex
	started, skipped, succeeded, failed []string
}

func (o *recordingObserver) TaskStarted(t *task.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, t.Name)
}

func (o *recordingObserver) TaskSkipped(t *task.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped = append(o.skipped, t.Name)
}

func (o *recordingObserver) TaskSucceeded(t *task.Task, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.succeeded = append(o.succeeded, t.Name)
}

func (o *recordingObserver) TaskFailed(t *task.Task, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, t.Name)
}

func TestPool(t *testing.T) {
	chk := require.New(t)

	p := scheduler.NewPool(4)
	chk.Equal(4, p.Total())
	chk.Equal(4, p.Free())

	a := p.TryAcquire(3)
	chk.NotNil(a)
	chk.Equal(3, p.Allocated())

	chk.Nil(p.TryAcquire(2), "must not over-allocate")
	chk.Nil(p.TryAcquire(0), "zero-sized leases are invalid")

	b := p.TryAcquire(1)
	chk.NotNil(b)
	chk.Equal(0, p.Free())

	a.Release()
	a.Release()
	chk.Equal(1, p.Allocated(), "double release must not free capacity twice")

	b.Release()
	chk.Equal(0, p.Allocated())
	chk.Equal(4, p.Peak())
}

func TestNewPoolPanicsOnZeroCapacity(t *testing.T) {
	require.Panics(t, func() { scheduler.NewPool(0) })
}

func TestRun_NeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 16).Draw(rt, "total")
		capacities := rapid.SliceOfN(rapid.IntRange(1, total), 1, 40).Draw(rt, "capacities")
		seed := rapid.Uint64Min(1).Draw(rt, "seed")

		var inUse, violations atomic.Int64
		runner := scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
			now := inUse.Add(int64(tk.Capacity))
			if now > int64(total) {
				violations.Add(1)
			}
			time.Sleep(time.Duration(tk.Capacity) * 50 * time.Microsecond)
			inUse.Add(-int64(tk.Capacity))
			return nil
		})

		s := scheduler.New(runner, scheduler.Config{Capacity: total, Seed: seed})
		report, err := s.Run(context.Background(), makeTasks(capacities...))
		if err != nil {
			rt.Fatalf("Run() error = %v", err)
		}
		if v := violations.Load(); v != 0 {
			rt.Fatalf("capacity exceeded %d times", v)
		}
		if report.PeakCapacity > total {
			rt.Fatalf("peak capacity %d > total %d", report.PeakCapacity, total)
		}
		if report.Succeeded != len(capacities) || !report.Success() {
			rt.Fatalf("report = %+v, want all %d succeeded", report, len(capacities))
		}
		if s.Pool().Allocated() != 0 {
			rt.Fatalf("capacity leaked: %d still allocated", s.Pool().Allocated())
		}
	})
}

func TestRun_OneFailureFailsSweep(t *testing.T) {
	chk := require.New(t)

	tasks := makeTasks(1, 1, 1, 1, 1, 1)
	exitErr := errors.New("exit status 3")
	runner := scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
		if tk.Name == "task-3" {
			return exitErr
		}
		return nil
	})

	s := scheduler.New(runner, scheduler.Config{Capacity: 8, Seed: 42})
	report, err := s.Run(context.Background(), tasks)

	chk.Error(err)
	chk.ErrorIs(err, exitErr)
	var terr *scheduler.TaskError
	chk.ErrorAs(err, &terr)
	chk.Equal("task-3", terr.Task)
	chk.False(report.Success())
	chk.Equal(1, report.Failed)
	chk.Equal(0, s.Pool().Allocated())
}

func TestRun_AggressiveFailStopsAdmission(t *testing.T) {
	chk := require.New(t)

	var calls atomic.Int32
	runner := scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
		calls.Add(1)
		return errors.New("boom")
	})
	obs := &recordingObserver{}

	// With capacity one, tasks run strictly one after another, so the first
	// failure must prevent every other task from starting.
	s := scheduler.New(runner, scheduler.Config{Capacity: 1, Seed: 7, Observers: []scheduler.Observer{obs}})
	report, err := s.Run(context.Background(), makeTasks(1, 1, 1, 1, 1))

	chk.Error(err)
	chk.EqualValues(1, calls.Load())
	chk.Equal(1, report.Started)
	chk.Equal(4, report.NotStarted)
	chk.Len(obs.failed, 1)
	chk.Empty(obs.succeeded)
}

func TestRun_InFlightTasksDrainAfterFailure(t *testing.T) {
	chk := require.New(t)

	release := make(chan struct{})
	var finished atomic.Int32
	runner := scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
		if tk.Name == "task-0" {
			return errors.New("boom")
		}
		<-release
		finished.Add(1)
		return nil
	})

	tasks := makeTasks(1, 1, 1)
	s := scheduler.New(runner, scheduler.Config{Capacity: 3, Seed: 1})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	report, err := s.Run(context.Background(), tasks)

	chk.Error(err)
	chk.EqualValues(2, finished.Load(), "in-flight tasks must be allowed to finish")
	chk.Equal(2, report.Succeeded)
	chk.Equal(1, report.Failed)
	chk.False(report.Success())
}

func TestRun_SkipsSatisfiedTasks(t *testing.T) {
	chk := require.New(t)

	tasks := makeTasks(2, 2, 2)
	for _, tk := range tasks {
		tk.Condition = condFunc(func() (bool, error) { return true, nil })
	}
	runner := scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
		t.Errorf("runner called for up-to-date task %s", tk.Name)
		return nil
	})
	obs := &recordingObserver{}

	s := scheduler.New(runner, scheduler.Config{Capacity: 2, Observers: []scheduler.Observer{obs}})
	report, err := s.Run(context.Background(), tasks)

	chk.NoError(err)
	chk.True(report.Success())
	chk.Equal(3, report.Skipped)
	chk.Equal(0, report.Started)
	chk.Equal(0, report.PeakCapacity, "skipped tasks must not take capacity")
	chk.Len(obs.skipped, 3)
}

func TestRun_MissingOutputFails(t *testing.T) {
	chk := require.New(t)

	tasks := makeTasks(1)
	tasks[0].OutputPath = "never-written.log"
	tasks[0].Condition = condFunc(func() (bool, error) { return false, nil })

	s := scheduler.New(scheduler.RunnerFunc(func(context.Context, *task.Task) error { return nil }),
		scheduler.Config{Capacity: 1})
	_, err := s.Run(context.Background(), tasks)

	chk.ErrorIs(err, scheduler.ErrOutputMissing)
	chk.Contains(err.Error(), "task-0")
}

func TestRun_RejectsOversizedTask(t *testing.T) {
	chk := require.New(t)

	var calls atomic.Int32
	s := scheduler.New(scheduler.RunnerFunc(func(context.Context, *task.Task) error {
		calls.Add(1)
		return nil
	}), scheduler.Config{Capacity: 4})

	_, err := s.Run(context.Background(), makeTasks(2, 5))
	chk.ErrorIs(err, scheduler.ErrCapacityExceeded)
	chk.Contains(err.Error(), "task-1")
	chk.EqualValues(0, calls.Load(), "no task may run when the set is invalid")
}

func TestValidate(t *testing.T) {
	s := scheduler.New(scheduler.RunnerFunc(func(context.Context, *task.Task) error { return nil }),
		scheduler.Config{Capacity: 4})

	assert.ErrorIs(t, s.Validate(makeTasks(0)), scheduler.ErrInvalidCapacity)

	dup := makeTasks(1, 1)
	dup[1].Name = dup[0].Name
	assert.ErrorIs(t, s.Validate(dup), scheduler.ErrDuplicateTask)

	assert.NoError(t, s.Validate(makeTasks(1, 4)))
}

func TestRun_CancelledContextStopsAdmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scheduler.New(scheduler.RunnerFunc(func(context.Context, *task.Task) error { return nil }),
		scheduler.Config{Capacity: 1})
	report, err := s.Run(ctx, makeTasks(1, 1))

	require.ErrorIs(t, err, scheduler.ErrAborted)
	assert.Equal(t, 2, report.NotStarted)
}

func TestOrder(t *testing.T) {
	tasks := makeTasks(1, 1, 1, 1, 1, 1, 1, 1)
	runner := scheduler.RunnerFunc(func(context.Context, *task.Task) error { return nil })

	a := scheduler.New(runner, scheduler.Config{Capacity: 1, Seed: 99}).Order(tasks)
	b := scheduler.New(runner, scheduler.Config{Capacity: 1, Seed: 99}).Order(tasks)

	require.Len(t, a, len(tasks))
	assert.Equal(t, a, b, "same seed must give the same order")
	assert.ElementsMatch(t, tasks, a, "order must be a permutation")
	assert.Equal(t, "task-0", tasks[0].Name, "input must not be reordered")
}

func TestReportDurations(t *testing.T) {
	runner := scheduler.RunnerFunc(func(context.Context, *task.Task) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	s := scheduler.New(runner, scheduler.Config{Capacity: 2})
	report, err := s.Run(context.Background(), makeTasks(1, 1, 1))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.MaxDuration(), 5*time.Millisecond)
	assert.GreaterOrEqual(t, report.DurationPercentile(50), time.Millisecond)
	assert.Greater(t, report.MeanDuration(), time.Duration(0))
}

func TestCleanupObserver(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "x.log")
	statsPath := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(logPath, []byte("partial"), 0644))
	require.NoError(t, os.WriteFile(statsPath, []byte("partial"), 0644))

	tk := &task.Task{Name: "x", OutputPath: logPath, StatsPath: statsPath}
	obs := &scheduler.CleanupObserver{Logger: zap.NewNop()}
	obs.TaskFailed(tk, time.Second, errors.New("boom"))

	assert.NoFileExists(t, logPath)
	assert.NoFileExists(t, statsPath)
}
