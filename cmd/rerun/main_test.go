package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/amonks/rerun/internal/script"
	"github.com/amonks/rerun/runner"
	"github.com/amonks/rerun/taskfile"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatchesGolden(t *testing.T, golden, got string) {
	t.Helper()

	want, err := os.ReadFile(golden)
	require.NoError(t, err)
	if string(want) == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(want), got, false)
	t.Errorf("output does not match %s:\n%s", golden, dmp.DiffPrettyText(diffs))
}

func TestTasklistText(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tf, err := taskfile.Load("testdata/elm")
	require.NoError(t, err)
	lib, err := tf.ToLibrary()
	require.NoError(t, err)

	assertMatchesGolden(t, "testdata/tasklist.golden", tasklistText(lib))
}

func TestExecute(t *testing.T) {
	run := func(args ...string) (int, string, string) {
		var stdout, stderr bytes.Buffer
		code := execute(context.Background(), append([]string{"--color", "never"}, args...), &stdout, &stderr)
		return code, stdout.String(), stderr.String()
	}

	t.Run("success", func(t *testing.T) {
		code, stdout, stderr := run("--dir", "testdata/pass", "--once")
		assert.Equal(t, 0, code)
		assert.Empty(t, stderr)
		assert.Contains(t, stdout, "built")
		assert.Contains(t, stdout, "tested")
		assert.Contains(t, stdout, "@runner")
	})

	t.Run("build failure exits with its status", func(t *testing.T) {
		code, stdout, stderr := run("--dir", "testdata/fail", "--once")
		assert.Equal(t, 3, code)
		assert.Contains(t, stdout, "compiling")
		assert.NotContains(t, stdout, "tested")
		assert.Contains(t, stderr, "task 'build-tests' failed: exit 3")
	})

	t.Run("task without watches runs once", func(t *testing.T) {
		code, stdout, _ := run("--dir", "testdata/fail", "run-tests")
		assert.Equal(t, 3, code)
		assert.NotContains(t, stdout, "tested")
	})

	t.Run("unknown task", func(t *testing.T) {
		code, stdout, stderr := run("--dir", "testdata/pass", "nope")
		assert.Equal(t, 1, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "'nope' not found")
		assert.Contains(t, stderr, " - run-tests")
	})

	t.Run("missing taskfile", func(t *testing.T) {
		code, _, stderr := run("--dir", t.TempDir())
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "no taskfile")
	})

	t.Run("invalid color", func(t *testing.T) {
		code, _, stderr := run("--dir", "testdata/pass", "--color", "sometimes")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "--color")
	})

	t.Run("too many arguments", func(t *testing.T) {
		code, _, _ := run("--dir", "testdata/pass", "a", "b")
		assert.Equal(t, 1, code)
	})

	t.Run("list", func(t *testing.T) {
		code, stdout, _ := run("--dir", "testdata/elm", "--list")
		assert.Equal(t, 0, code)
		assertMatchesGolden(t, "testdata/tasklist.golden", stdout)
	})

	t.Run("list one task", func(t *testing.T) {
		code, stdout, _ := run("--dir", "testdata/elm", "--list", "run-tests")
		assert.Equal(t, 0, code)
		assert.Contains(t, stdout, "build-tests")
		assert.Contains(t, stdout, "run-tests")
		assert.NotContains(t, stdout, "default")
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 1, exitCode(errors.New("config")))
	assert.Equal(t, 1, exitCode(&runner.TaskError{ID: "a", Err: errors.New("fail")}))
	assert.Equal(t, 2, exitCode(&runner.TaskError{ID: "a", Err: &script.ExitError{Code: 2}}))
}
