package tasks

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateTask is returned when registering a task whose ID is
	// already in the library.
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrInvalidTask is returned when registering a task whose metadata
	// can never be valid, like a task with no ID.
	ErrInvalidTask = errors.New("invalid task")

	// ErrUnknownTask is returned when a task ID is referenced, as a run
	// target, a dependency, or by a watch rule, but no task has that ID.
	ErrUnknownTask = errors.New("unknown task")

	// ErrDependencyCycle is returned when resolving a task would require
	// running that task before itself.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrInvalidWatch is returned for a watch rule with no patterns.
	ErrInvalidWatch = errors.New("invalid watch")
)

// ValidationError collects every problem found while validating a Library.
// Its message is a multiline list, one problem per line.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	lines := []string{"invalid taskfile"}
	for _, p := range e.Problems {
		lines = append(lines, "- "+p.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap allows errors.Is to match any of the collected problems.
func (e *ValidationError) Unwrap() []error { return e.Problems }
