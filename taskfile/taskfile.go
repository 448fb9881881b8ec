// Package taskfile loads task definitions from tasks.toml (or tasks.yaml)
// files.
package taskfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/amonks/rerun/tasks"
	"github.com/amonks/rerun/tasks/script"
	"gopkg.in/yaml.v3"
)

// Filenames are the names a taskfile may have, in order of preference.
var Filenames = []string{"tasks.toml", "tasks.yaml", "tasks.yml"}

// ErrNoTaskfile is returned by Load when a directory has no taskfile.
var ErrNoTaskfile = errors.New("no taskfile")

// Taskfile defines the type of tasks.toml files. You can load one from disk,
// or, if you want, you can create your own in code.
type Taskfile struct {
	Tasks []Task `toml:"task" yaml:"task"`
}

// Load loads a task file from the specified directory, loads any referenced
// taskfiles from subdirectories, and combines them into a single Taskfile.
//
// A reference containing a slash, like "css/build", names the task "build"
// in css's taskfile. Tasks from that taskfile are included with their IDs,
// references, and watch patterns prefixed by "css/".
func Load(cwd string) (Taskfile, error) {
	var allTasks []Task

	seenDirs := map[string]struct{}{}
	var ingest func(dir string) error
	ingest = func(dir string) error {
		if _, ok := seenDirs[dir]; ok {
			return nil
		}
		seenDirs[dir] = struct{}{}

		theseTasks, err := load(cwd, dir)
		if err != nil {
			return err
		}
		refs := map[string]struct{}{}
		for _, t := range theseTasks {
			t := t.withDir(cwd, dir)
			allTasks = append(allTasks, t)
			for _, ref := range t.references() {
				if refDir := path.Dir(ref); refDir != dir {
					refs[refDir] = struct{}{}
				}
			}
		}

		// The task ID is ignored here; referenced taskfiles are loaded
		// whole, and missing tasks are reported by validation.
		for _, child := range sortedKeys(refs) {
			if err := ingest(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := ingest("."); err != nil {
		return Taskfile{}, err
	}

	return Taskfile{allTasks}, nil
}

// ToLibrary registers a script task for each task in the taskfile, then
// validates the result. Every problem found is reported together in a
// [*tasks.ValidationError].
func (tf Taskfile) ToLibrary() (*tasks.Library, error) {
	lib, _ := tasks.NewLibrary()

	var problems []error
	for _, t := range tf.Tasks {
		if err := lib.Register(t.ToScriptTask()); err != nil {
			problems = append(problems, err)
		}
	}
	if err := lib.Validate(); err != nil {
		var verr *tasks.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		problems = append(problems, verr.Problems...)
	}
	if len(problems) != 0 {
		return nil, &tasks.ValidationError{Problems: problems}
	}
	return lib, nil
}

func (tf Taskfile) find(id string) Task {
	for _, t := range tf.Tasks {
		if t.ID == id {
			return t
		}
	}
	return Task{}
}

func load(cwd, dir string) ([]Task, error) {
	for _, name := range Filenames {
		filename := filepath.Join(cwd, dir, name)
		f, err := os.ReadFile(filename)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}

		var parsed Taskfile
		if filepath.Ext(name) == ".toml" {
			err = toml.Unmarshal(f, &parsed)
		} else {
			err = yaml.Unmarshal(f, &parsed)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		return parsed.Tasks, nil
	}
	return nil, fmt.Errorf("%w in '%s' (looked for %s)", ErrNoTaskfile, filepath.Join(cwd, dir), strings.Join(Filenames, ", "))
}

type Task struct {
	ID           string            `toml:"id" yaml:"id"`
	Description  string            `toml:"description" yaml:"description"`
	Dependencies []string          `toml:"dependencies" yaml:"dependencies"`
	Run          []string          `toml:"run" yaml:"run"`
	Watch        []Watch           `toml:"watch" yaml:"watch"`
	CMD          string            `toml:"cmd" yaml:"cmd"`
	Env          map[string]string `toml:"env" yaml:"env"`

	// Dir specifies the path to the directory containing this task's
	// taskfile. The task's command runs there.
	Dir string `toml:"-" yaml:"-"`
}

// Watch re-runs Tasks, or the task declaring it if Tasks is empty, when files
// matching any of Patterns change. Patterns are relative to the taskfile's
// directory and may use globs, including "**" and "..".
type Watch struct {
	Patterns []string `toml:"patterns" yaml:"patterns"`
	Tasks    []string `toml:"tasks" yaml:"tasks"`
}

func (t Task) ToScriptTask() script.Task {
	description := t.Description
	if description == "" && t.CMD != "" && !strings.Contains(t.CMD, "\n") {
		description = fmt.Sprintf(`"%s"`, t.CMD)
	}
	var watch []tasks.WatchRule
	for _, w := range t.Watch {
		watch = append(watch, tasks.WatchRule{Patterns: w.Patterns, Tasks: w.Tasks})
	}
	metadata := tasks.TaskMetadata{
		ID:           t.ID,
		Description:  description,
		Dependencies: t.Dependencies,
		Runs:         t.Run,
		Watch:        watch,
	}
	return script.New(metadata, t.Dir, t.Env, t.CMD)
}

func (t Task) references() []string {
	refs := append([]string{}, t.Dependencies...)
	refs = append(refs, t.Run...)
	for _, w := range t.Watch {
		refs = append(refs, w.Tasks...)
	}
	return refs
}

// withDir rebases a task loaded from dir onto the root taskfile. Slices are
// copied, so the parsed task is left alone.
func (t Task) withDir(cwd, dir string) Task {
	t.ID = join(dir, t.ID)
	t.Dir = filepath.Join(cwd, dir)
	t.Dependencies = joinAll(dir, t.Dependencies)
	t.Run = joinAll(dir, t.Run)

	watch := make([]Watch, len(t.Watch))
	for i, w := range t.Watch {
		watch[i] = Watch{
			Patterns: joinAll(dir, w.Patterns),
			Tasks:    joinAll(dir, w.Tasks),
		}
	}
	if t.Watch != nil {
		t.Watch = watch
	}
	return t
}

// join prefixes a slash-separated reference with dir, keeping the slashes.
func join(dir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(ref)))
}

func joinAll(dir string, refs []string) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = join(dir, ref)
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
