package script

import (
	"context"
	"io"

	"github.com/amonks/rerun/internal/script"
	"github.com/amonks/rerun/tasks"
)

// ExitError is the error returned by Start when the script exits non-zero.
type ExitError = script.ExitError

type Task struct {
	metadata tasks.TaskMetadata
	script   script.Script
}

// New creates a new Script Task with the given working directory, environment,
// and text. If dir is the empty string, the script is run in the current
// working directory. Env is appended to the current environment. Script is
// evaluated in a new bash process. Effectively, it is equivalent to
//
//	$ cd $DIR && $ENV bash -c "$TEXT"
//
// A Task with no text succeeds immediately. That's what composite tasks and
// dependency-only tasks use.
func New(metadata tasks.TaskMetadata, dir string, env map[string]string, text string) Task {
	return Task{
		metadata: metadata,
		script:   script.New(dir, env, text),
	}
}

// Dir returns the directory that the script will execute in.
func (t Task) Dir() string { return t.script.Dir }

// Text returns the script's source.
func (t Task) Text() string { return t.script.Text }

var _ tasks.Task = Task{}

// Metadata implements [tasks.Task]. It returns the metadata, like
// dependencies, that will be used for orchestration by the runner.
func (t Task) Metadata() tasks.TaskMetadata { return t.metadata }

// Start implements [tasks.Task]. It executes the script and does not return
// until the script is done executing. Stdout and stderr are both written to
// w. The returned error will be nil only if the process exits with status
// code 0 and is not interrupted by a context cancelation; a non-zero exit is
// reported as an [*ExitError].
//
// Execution can be canceled with the provided context. When canceled, we first
// send SIGINT, then if the process doesn't exit within 2 seconds, we send
// SIGKILL.
func (t Task) Start(ctx context.Context, w io.Writer) error {
	if t.script.Text == "" {
		return nil
	}
	return t.script.Start(ctx, w, w)
}
