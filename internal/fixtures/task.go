package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/amonks/rerun/internal/script"
	"github.com/amonks/rerun/tasks"
)

// Task is a fake task for testing the runner. By default, Start prints
// "! <id>: execute" and succeeds. The With* methods change that.
type Task struct {
	meta tasks.TaskMetadata

	output   []string
	onCancel *error
	exitCode int

	started chan<- struct{}
	exit    <-chan error

	starts atomic.Int32
}

var _ tasks.Task = &Task{}

func NewTask(id string) *Task { return &Task{meta: tasks.TaskMetadata{ID: id}} }

func (t *Task) Metadata() tasks.TaskMetadata { return t.meta }

func (t *Task) WithDependencies(ds ...string) *Task { t.meta.Dependencies = ds; return t }
func (t *Task) WithRuns(rs ...string) *Task         { t.meta.Runs = rs; return t }

func (t *Task) WithWatch(patterns []string, ids ...string) *Task {
	t.meta.Watch = append(t.meta.Watch, tasks.WatchRule{Patterns: patterns, Tasks: ids})
	return t
}

func (t *Task) WithDescription(d string) *Task      { t.meta.Description = d; return t }
func (t *Task) WithOutput(output ...string) *Task   { t.output = output; return t }
func (t *Task) WithStarted(c chan<- struct{}) *Task { t.started = c; return t }
func (t *Task) WithExit(ex <-chan error) *Task      { t.exit = ex; return t }
func (t *Task) WithCancel(err error) *Task          { t.onCancel = &err; return t }
func (t *Task) WithExitCode(code int) *Task         { t.exitCode = code; return t }

// WithImmediateFailure makes the next Start fail with the error "fail".
func (t *Task) WithImmediateFailure() *Task {
	c := make(chan error, 1)
	c <- errors.New("fail")
	t.WithExit(c)
	return t
}

// Starts returns the number of times Start has been called.
func (t *Task) Starts() int { return int(t.starts.Load()) }

func (t *Task) Start(ctx context.Context, w io.Writer) error {
	t.starts.Add(1)
	if t.started != nil {
		t.started <- struct{}{}
	}

	if t.onCancel != nil {
		fmt.Fprintf(w, "! %s: start\n", t.meta.ID)
		<-ctx.Done()
		fmt.Fprintf(w, "! %s: canceled\n", t.meta.ID)
		return *t.onCancel
	}

	if t.exitCode != 0 {
		fmt.Fprintf(w, "! %s: exit %d\n", t.meta.ID, t.exitCode)
		return &script.ExitError{Code: t.exitCode}
	}

	if t.exit == nil {
		if t.output == nil {
			fmt.Fprintf(w, "! %s: execute\n", t.meta.ID)
		} else {
			for _, s := range t.output {
				fmt.Fprint(w, s)
			}
		}
		return nil
	}

	fmt.Fprintf(w, "! %s: start\n", t.meta.ID)
	select {
	case <-ctx.Done():
		fmt.Fprintf(w, "! %s: canceled\n", t.meta.ID)
		return ctx.Err()
	case err := <-t.exit:
		if err != nil {
			fmt.Fprintf(w, "! %s: triggered failure\n", t.meta.ID)
			return err
		}
		fmt.Fprintf(w, "! %s: triggered success\n", t.meta.ID)
		return nil
	}
}

