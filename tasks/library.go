package tasks

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// A Library is the registry of every known [Task], in registration order.
//
// Tasks are added with [Library.Register] while the library is being built.
// Once it is handed to a runner, a Library is read-only and safe to read from
// many goroutines.
type Library struct {
	ids   []string
	tasks map[string]Task
}

// NewLibrary creates a Library and registers the given tasks in it, in order.
func NewLibrary(tasks ...Task) (*Library, error) {
	lib := &Library{tasks: map[string]Task{}}
	for _, t := range tasks {
		if err := lib.Register(t); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Register adds a task to the library. It fails if another task already has
// the same ID. References to other tasks are not checked here, since they may
// be registered later; see [Library.Validate] and [Library.Plan].
func (lib *Library) Register(t Task) error {
	id := t.Metadata().ID
	switch {
	case id == "":
		return fmt.Errorf("%w: task has no ID", ErrInvalidTask)
	case strings.IndexFunc(id, unicode.IsSpace) != -1:
		return fmt.Errorf("%w: task ID '%s' contains whitespace", ErrInvalidTask, id)
	case strings.HasPrefix(id, "@"):
		return fmt.Errorf("%w: task ID '%s' starts with '@', which is reserved", ErrInvalidTask, id)
	}
	if _, isDuplicate := lib.tasks[id]; isDuplicate {
		return fmt.Errorf("%w: '%s' is already registered", ErrDuplicateTask, id)
	}
	if lib.tasks == nil {
		lib.tasks = map[string]Task{}
	}
	lib.ids = append(lib.ids, id)
	lib.tasks[id] = t
	return nil
}

// IDs returns, in order, the task IDs present in the library.
func (lib *Library) IDs() []string { return lib.ids }

// Task returns the task with the given ID, or nil if there is no such task.
func (lib *Library) Task(id string) Task { return lib.tasks[id] }

// Size returns the number of tasks in the library.
func (lib *Library) Size() int { return len(lib.ids) }

// Has returns true if the library contains a task with the given ID.
func (lib *Library) Has(id string) bool {
	_, has := lib.tasks[id]
	return has
}

// LongestID returns the width of the longest task ID in the library,
// _including_ the meta stream IDs used by the runner.
func (lib *Library) LongestID() int {
	longest := len("@runner") // can't import the runner's consts here; cycle
	for _, id := range lib.ids {
		if l := len(id); l > longest {
			longest = l
		}
	}
	return longest
}

// Subtree returns a new Library containing only the given tasks and
// everything they reach through Dependencies or Runs, preserving the
// canonical ID order. Unknown IDs are ignored.
func (lib *Library) Subtree(ids ...string) *Library {
	include := map[string]struct{}{}
	stack := append([]string{}, ids...)
	for i := 0; i < len(stack); i++ {
		id := stack[i]
		if _, seen := include[id]; seen {
			continue
		}
		t := lib.Task(id)
		if t == nil {
			continue
		}
		include[id] = struct{}{}
		stack = append(stack, lib.edges(t)...)
	}
	subtree := &Library{tasks: map[string]Task{}}
	for _, id := range lib.ids {
		if _, isIncluded := include[id]; isIncluded {
			subtree.ids = append(subtree.ids, id)
			subtree.tasks[id] = lib.Task(id)
		}
	}
	return subtree
}

// Watches returns, in canonical task order, every watch rule declared in the
// library. Rules that don't name any tasks are returned naming the task that
// declared them.
func (lib *Library) Watches() []WatchRule {
	var rules []WatchRule
	for _, id := range lib.ids {
		for _, rule := range lib.tasks[id].Metadata().Watch {
			tasks := rule.Tasks
			if len(tasks) == 0 {
				tasks = []string{id}
			}
			rules = append(rules, WatchRule{
				Patterns: append([]string{}, rule.Patterns...),
				Tasks:    append([]string{}, tasks...),
			})
		}
	}
	return rules
}

// WithDependency returns, in canonical order, the list of task IDs that have
// the given dependency.
func (lib *Library) WithDependency(dependency string) []string {
	var ids []string
	for _, id := range lib.ids {
		if slices.Contains(lib.tasks[id].Metadata().Dependencies, dependency) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate inspects the library and returns a [*ValidationError] if any task
// references an unknown task, if any watch rule has no patterns, or if the
// tasks form a cycle.
func (lib *Library) Validate() error {
	var problems []error

	for _, id := range lib.ids {
		meta := lib.tasks[id].Metadata()
		for _, dep := range meta.Dependencies {
			if !lib.Has(dep) {
				problems = append(problems, fmt.Errorf("%w: task '%s' lists dependency '%s', which is not the ID of a task", ErrUnknownTask, id, dep))
			}
		}
		for _, r := range meta.Runs {
			if !lib.Has(r) {
				problems = append(problems, fmt.Errorf("%w: task '%s' runs '%s', which is not the ID of a task", ErrUnknownTask, id, r))
			}
		}
		for _, rule := range meta.Watch {
			if len(rule.Patterns) == 0 {
				problems = append(problems, fmt.Errorf("%w: task '%s' has a watch rule with no patterns", ErrInvalidWatch, id))
			}
			for _, w := range rule.Tasks {
				if !lib.Has(w) {
					problems = append(problems, fmt.Errorf("%w: task '%s' watches for '%s', which is not the ID of a task", ErrUnknownTask, id, w))
				}
			}
		}
	}

	problems = append(problems, lib.cycles()...)

	if len(problems) != 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// cycles returns one error for every back edge found by a depth-first walk
// over Dependencies and Runs.
func (lib *Library) cycles() []error {
	const (
		unvisited = iota
		visiting
		visited
	)

	var (
		problems []error
		state    = map[string]int{}
		path     []string
		visit    func(id string)
	)
	visit = func(id string) {
		switch state[id] {
		case visiting:
			i := slices.Index(path, id)
			cycle := append(append([]string{}, path[i:]...), id)
			problems = append(problems, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> ")))
			return
		case visited:
			return
		}
		t := lib.Task(id)
		if t == nil {
			return
		}
		state[id] = visiting
		path = append(path, id)
		for _, next := range lib.edges(t) {
			visit(next)
		}
		path = path[:len(path)-1]
		state[id] = visited
	}

	for _, id := range lib.ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return problems
}

func (lib *Library) edges(t Task) []string {
	meta := t.Metadata()
	edges := make([]string, 0, len(meta.Dependencies)+len(meta.Runs))
	edges = append(edges, meta.Dependencies...)
	return append(edges, meta.Runs...)
}
