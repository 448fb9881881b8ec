package tasks

import (
	"context"
	"io"
)

// A Task is anything the runner can execute. Start runs the task's action
// and does not return until the action is complete. Output should be
// written to w.
//
// A Task must be safe to start again after it returns: the watcher re-runs
// the same Task value every time a watched file changes.
type Task interface {
	Metadata() TaskMetadata
	Start(ctx context.Context, w io.Writer) error
}

// TaskMetadata describes the facts about a task (eg its dependencies) that are
// used for orchestration by the runner.
type TaskMetadata struct {
	// ID identifies a task, for example,
	//   - for command line invocation, as in `$ rerun <id>`
	//   - in the printer's gutter.
	ID string

	// Description optionally provides additional information about a task,
	// which can be displayed, for example, by running `rerun -list`. It can
	// be one line or many lines.
	Description string

	// Dependencies are other task IDs which must complete successfully
	// before this task starts. If task A lists B as a dependency, running
	// A will first run B.
	//
	// Within a single run, every task executes at most once, even if
	// several tasks depend on it.
	//
	// Dependencies can be task IDs from child directories. For example,
	// the dependency "css/build" specifies the task with ID "build" in the
	// tasks file "./css/tasks.toml".
	Dependencies []string

	// Runs makes this a composite task. After its dependencies are done,
	// each listed task is run, in order, as though it had been invoked on
	// its own. A task listed here runs even if it already ran as a
	// dependency earlier in the same run.
	Runs []string

	// Watch lists the watch rules that become active when this task is
	// invoked from the command line.
	Watch []WatchRule
}

// A WatchRule binds a set of file patterns to a list of tasks. When a file
// matching any of the patterns changes, each task is run, in order.
//
// Patterns are globs relative to the directory of the taskfile that
// declares them. "*" matches within a single directory and "**" matches
// across directories, so
//   - `"*.elm"` matches elm files in the taskfile's directory,
//   - `"../*.elm"` matches elm files in its parent directory,
//   - `"src/**/*.js"` matches javascript files anywhere within src.
//
// If Tasks is empty, the rule re-runs the task that declares it.
type WatchRule struct {
	Patterns []string
	Tasks    []string
}
