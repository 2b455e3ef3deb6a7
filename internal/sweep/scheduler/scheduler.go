// Package scheduler runs simulation tasks under a fixed CPU budget.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gammazero/deque"

	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

var (
	// ErrCapacityExceeded is returned when a task needs more capacity than
	// the pool holds. Such a task could never run.
	ErrCapacityExceeded = errors.New("task capacity exceeds pool capacity")

	// ErrInvalidCapacity is returned for tasks requiring less than one unit.
	ErrInvalidCapacity = errors.New("task capacity must be positive")

	// ErrDuplicateTask is returned when two tasks share a name, and so
	// would share output files.
	ErrDuplicateTask = errors.New("duplicate task name")

	// ErrOutputMissing marks a task that exited cleanly without producing
	// up-to-date outputs.
	ErrOutputMissing = errors.New("task exited without producing its outputs")

	// ErrAborted marks a sweep whose context was cancelled.
	ErrAborted = errors.New("sweep aborted")
)

// TaskError identifies the task responsible for a sweep failure.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Runner executes one task to completion. A nil error means the process
// exited with status zero.
type Runner interface {
	Run(ctx context.Context, t *task.Task) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, t *task.Task) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, t *task.Task) error {
	return f(ctx, t)
}

// Config contains scheduler settings.
type Config struct {
	// Capacity is the total number of CPUs the sweep may use at once.
	Capacity int

	// Seed fixes the randomized execution order. Zero picks a random seed.
	Seed uint64

	// Observers are notified of task lifecycle events. They are called
	// from the scheduler's control loop, never concurrently.
	Observers []Observer
}

// Scheduler runs independent tasks in randomized order, starting a task
// whenever enough capacity is free. The first failure stops admission of
// further tasks; tasks already running are allowed to finish.
type Scheduler struct {
	runner    Runner
	pool      *Pool
	seed      uint64
	observers []Observer
}

// New creates a scheduler that executes tasks with runner.
func New(runner Runner, cfg Config) *Scheduler {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Scheduler{
		runner:    runner,
		pool:      NewPool(cfg.Capacity),
		seed:      seed,
		observers: cfg.Observers,
	}
}

// Pool returns the scheduler's capacity pool.
func (s *Scheduler) Pool() *Pool {
	return s.pool
}

// Seed returns the seed of the execution order.
func (s *Scheduler) Seed() uint64 {
	return s.seed
}

type completion struct {
	task    *task.Task
	elapsed time.Duration
	err     error
}

// Validate checks that every task can run in this scheduler's pool.
func (s *Scheduler) Validate(tasks []*task.Task) error {
	names := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.Capacity < 1 {
			return fmt.Errorf("task %s: %w (got %d)", t.Name, ErrInvalidCapacity, t.Capacity)
		}
		if t.Capacity > s.pool.Total() {
			return fmt.Errorf("task %s: %w (needs %d, pool has %d)", t.Name, ErrCapacityExceeded, t.Capacity, s.pool.Total())
		}
		if _, dup := names[t.Name]; dup {
			return fmt.Errorf("task %s: %w", t.Name, ErrDuplicateTask)
		}
		names[t.Name] = struct{}{}
	}
	return nil
}

// Order returns the randomized execution order of tasks without running
// them. The input slice is not modified.
func (s *Scheduler) Order(tasks []*task.Task) []*task.Task {
	order := make([]*task.Task, len(tasks))
	copy(order, tasks)
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// Run executes all tasks and blocks until none are running. It returns a
// non-nil error if any task failed, a task's outputs were missing after it
// exited, or the task set is invalid for this pool.
func (s *Scheduler) Run(ctx context.Context, tasks []*task.Task) (*Report, error) {
	if err := s.Validate(tasks); err != nil {
		return nil, err
	}

	report := newReport(len(tasks))
	start := time.Now()

	var pending deque.Deque[*task.Task]
	for _, t := range s.Order(tasks) {
		pending.PushBack(t)
	}

	done := make(chan completion)
	inFlight := 0
	var firstErr error

	for {
		if firstErr == nil && ctx.Err() != nil {
			firstErr = fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		}
		if firstErr == nil {
			n, err := s.admit(ctx, &pending, done, report)
			inFlight += n
			if err != nil {
				firstErr = err
			}
		}

		if inFlight == 0 {
			break
		}

		c := <-done
		inFlight--
		if c.err != nil {
			terr := &TaskError{Task: c.task.Name, Err: c.err}
			report.recordFailure(c.elapsed, terr)
			s.notifyFailed(c.task, c.elapsed, c.err)
			if firstErr == nil {
				firstErr = terr
			}
			continue
		}
		report.recordSuccess(c.elapsed)
		s.notifySucceeded(c.task, c.elapsed)
	}

	report.NotStarted = pending.Len()
	report.PeakCapacity = s.pool.Peak()
	report.Elapsed = time.Since(start)

	if firstErr == nil && pending.Len() > 0 {
		// Unreachable with validated tasks: an idle pool fits any of them.
		firstErr = fmt.Errorf("%d tasks could not be scheduled", pending.Len())
	}
	return report, firstErr
}

// admit starts every pending task that currently fits, scanning the queue
// in order. Tasks whose outputs are already up to date are dropped as
// skipped without taking capacity. It returns the number of tasks started.
func (s *Scheduler) admit(ctx context.Context, pending *deque.Deque[*task.Task], done chan<- completion, report *Report) (int, error) {
	started := 0
	for i := 0; i < pending.Len(); {
		t := pending.At(i)
		if t.Capacity > s.pool.Free() {
			i++
			continue
		}

		satisfied, err := t.Satisfied()
		if err != nil {
			pending.Remove(i)
			terr := &TaskError{Task: t.Name, Err: err}
			report.recordFailure(0, terr)
			s.notifyFailed(t, 0, err)
			return started, terr
		}
		if satisfied {
			pending.Remove(i)
			report.Skipped++
			s.notifySkipped(t)
			continue
		}

		lease := s.pool.TryAcquire(t.Capacity)
		if lease == nil {
			i++
			continue
		}
		pending.Remove(i)
		report.Started++
		started++
		s.notifyStarted(t)
		go s.execute(ctx, t, lease, done)
	}
	return started, nil
}

// execute runs one task on its own goroutine. The lease is released before
// the completion is reported, so the control loop always sees the freed
// capacity.
func (s *Scheduler) execute(ctx context.Context, t *task.Task, lease *Lease, done chan<- completion) {
	start := time.Now()
	err := func() error {
		defer lease.Release()
		return s.runTask(ctx, t)
	}()
	done <- completion{task: t, elapsed: time.Since(start), err: err}
}

func (s *Scheduler) runTask(ctx context.Context, t *task.Task) error {
	if err := s.runner.Run(ctx, t); err != nil {
		return err
	}
	if t.Condition == nil {
		return nil
	}
	ok, err := t.Satisfied()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutputMissing, t.OutputPath)
	}
	return nil
}

func (s *Scheduler) notifyStarted(t *task.Task) {
	for _, o := range s.observers {
		o.TaskStarted(t)
	}
}

func (s *Scheduler) notifySkipped(t *task.Task) {
	for _, o := range s.observers {
		o.TaskSkipped(t)
	}
}

func (s *Scheduler) notifySucceeded(t *task.Task, elapsed time.Duration) {
	for _, o := range s.observers {
		o.TaskSucceeded(t, elapsed)
	}
}

func (s *Scheduler) notifyFailed(t *task.Task, elapsed time.Duration, err error) {
	for _, o := range s.observers {
		o.TaskFailed(t, elapsed, err)
	}
}
