// Package runner executes tasks from a [tasks.Library]: one at a time, with
// each task's dependencies first, and again whenever a watched file changes.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/rerun/internal/mutex"
	"github.com/amonks/rerun/internal/styles"
	"github.com/amonks/rerun/tasks"
	"github.com/charmbracelet/lipgloss"
)

type Runner struct {
	mode    RunnerMode
	library *tasks.Library
	dir     string
	mw      *lineBuffered

	// Run holds runMu for the whole of a run, so tasks from two runs never
	// execute at the same time, even when a watch triggers a run while
	// another is in progress.
	runMu *mutex.Mutex
}

// New creates a Runner for the tasks in lib. Watch patterns are resolved
// relative to dir. Task output and the runner's own log lines are written to
// mw.
func New(mode RunnerMode, lib *tasks.Library, dir string, mw MultiWriter) *Runner {
	return &Runner{
		mode:    mode,
		library: lib,
		dir:     dir,
		mw:      newLineBuffered(mw),
		runMu:   mutex.New("runner"),
	}
}

func (r *Runner) Library() *tasks.Library {
	return r.library
}

// Run runs the task with the given ID once, after its dependencies, and
// returns when it's done.
//
// Each task in the plan (see [tasks.Library.Plan]) executes strictly in
// order, and each at most once. If the plan can't be made, Run returns the
// configuration error without running anything. If any task fails, Run stops
// there and returns a [*TaskError] naming it; tasks after it never start.
// If ctx is canceled, the running task is canceled and Run returns ctx's
// error.
func (r *Runner) Run(ctx context.Context, id string) error {
	plan, err := r.library.Plan(id)
	if err != nil {
		return err
	}

	defer r.runMu.Lock("Run:" + id).Unlock()

	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.execute(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, id string) error {
	t := r.library.Task(id)
	w := r.mw.writer(id)

	r.printf(id, styles.Log, "starting")
	err := t.Start(ctx, w)
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}

	if err != nil && ctx.Err() != nil {
		r.printf(id, styles.Log, "canceled")
		return ctx.Err()
	}
	if err != nil {
		r.printf(id, styles.Failure, "exit: %s", err)
		return &TaskError{ID: id, Err: err}
	}
	r.printf(id, styles.Log, "exit ok")
	return nil
}

// Start is what the command line does with a task: run it once, then, if
// the runner's mode is [RunnerModeKeepalive] and the task or anything it
// depends on declares watch rules, keep re-running as files change until
// ctx is canceled.
//
// In a one-shot run, Start returns Run's result. In a watching run, a
// failure is logged and watching continues; Start only returns when ctx is
// done, with ctx's error.
func (r *Runner) Start(ctx context.Context, id string) error {
	// Fail fast on configuration errors before starting any watchers.
	if _, err := r.library.Plan(id); err != nil {
		return err
	}

	rules := r.library.Subtree(id).Watches()
	if r.mode == RunnerModeExit || len(rules) == 0 {
		err := r.Run(ctx, id)
		switch {
		case errors.Is(err, context.Canceled):
			r.printf(InternalTaskRunner, styles.Log, "run canceled")
		case err != nil:
			r.printf(InternalTaskRunner, styles.Failure, "%s", err)
		default:
			r.printf(InternalTaskRunner, styles.Log, "done")
		}
		return err
	}

	// Start watching first, so that changes made while the first run is in
	// progress aren't missed.
	w := r.Watch(rules...)
	if err := w.Start(ctx); err != nil {
		return err
	}

	if err := r.Run(ctx, id); err != nil && !errors.Is(err, context.Canceled) {
		r.printf(InternalTaskWatch, styles.Failure, "%s; waiting for changes", err)
	} else if err == nil {
		r.printf(InternalTaskWatch, styles.Log, "waiting for changes")
	}

	<-ctx.Done()
	if err := w.Stop(); err != nil {
		return err
	}
	r.printf(InternalTaskRunner, styles.Log, "done")
	return ctx.Err()
}

func (r *Runner) printf(id string, style lipgloss.Style, f string, args ...any) {
	w := r.mw.Writer(id)
	s := fmt.Sprintf(f, args...)
	w.Write([]byte(style.Render(s) + "\n"))
}

// Meta streams, written alongside task output.
const (
	InternalTaskRunner = "@runner"
	InternalTaskWatch  = "@watch"
)

type RunnerMode int

const (
	runnerModeInvalid RunnerMode = iota

	// RunnerModeKeepalive runs the requested task, then re-runs tasks as
	// their watched files change.
	RunnerModeKeepalive

	// RunnerModeExit runs the requested task once, ignoring watches.
	RunnerModeExit
)

func (m RunnerMode) String() string {
	switch m {
	case RunnerModeKeepalive:
		return "keepalive"
	case RunnerModeExit:
		return "exit"
	default:
		return fmt.Sprintf("RunnerMode(%d)", int(m))
	}
}
