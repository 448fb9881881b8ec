package runner

import (
	"errors"
	"fmt"

	"github.com/amonks/rerun/internal/script"
)

// TaskError is returned by [Runner.Run] when a task fails. Every task planned
// after ID was skipped.
type TaskError struct {
	ID  string
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s' failed: %s", e.ID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// ExitCode returns the failed task's exit status, or 1 if it failed some
// other way.
func (e *TaskError) ExitCode() int {
	var exitErr *script.ExitError
	if errors.As(e.Err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}
