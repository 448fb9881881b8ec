package tasks

import (
	"fmt"
	"slices"
	"strings"
)

// Plan returns, in execution order, the task IDs that a single run of the
// given task executes.
//
// Dependencies come first, depth first and in declaration order, and each
// task appears at most once among them. A composite task's Runs are each
// planned as their own run, so a task can appear again inside one of them.
// The requested task is always last.
//
// Plan fails, before anything has run, if any referenced task is unknown or
// if the tasks form a cycle.
func (lib *Library) Plan(id string) ([]string, error) {
	p := &planner{lib: lib}
	if err := p.invoke(id); err != nil {
		return nil, err
	}
	return p.steps, nil
}

type planner struct {
	lib   *Library
	path  []string
	steps []string
}

// invoke plans a run of id with a fresh at-most-once scope.
func (p *planner) invoke(id string) error {
	return p.visit(id, map[string]struct{}{})
}

func (p *planner) visit(id string, done map[string]struct{}) error {
	if i := slices.Index(p.path, id); i != -1 {
		cycle := append(append([]string{}, p.path[i:]...), id)
		return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
	}
	if _, isDone := done[id]; isDone {
		return nil
	}

	t := p.lib.Task(id)
	if t == nil {
		return p.unknown(id)
	}

	p.path = append(p.path, id)
	defer func() { p.path = p.path[:len(p.path)-1] }()

	meta := t.Metadata()
	for _, dep := range meta.Dependencies {
		if err := p.visit(dep, done); err != nil {
			return err
		}
	}
	for _, r := range meta.Runs {
		if err := p.invoke(r); err != nil {
			return err
		}
	}

	done[id] = struct{}{}
	p.steps = append(p.steps, id)
	return nil
}

func (p *planner) unknown(id string) error {
	if len(p.path) != 0 {
		parent := p.path[len(p.path)-1]
		return fmt.Errorf("%w: task '%s' references '%s', which is not the ID of a task", ErrUnknownTask, parent, id)
	}
	lines := []string{fmt.Sprintf("%s: '%s' not found. Tasks are,", ErrUnknownTask, id)}
	for _, id := range p.lib.IDs() {
		lines = append(lines, " - "+id)
	}
	return &unknownRootError{msg: strings.Join(lines, "\n")}
}

type unknownRootError struct{ msg string }

func (e *unknownRootError) Error() string { return e.msg }
func (e *unknownRootError) Unwrap() error { return ErrUnknownTask }
