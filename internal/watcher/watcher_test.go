package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	dir := resolve(t.TempDir())
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tests"), 0o755))

	t.Run("star stays within one directory", func(t *testing.T) {
		root, match, recursive, err := split(filepath.Join(dir, "tests", "*.elm"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "tests"), root)
		assert.False(t, recursive)
		assert.True(t, match.Match(filepath.ToSlash(filepath.Join(dir, "tests", "RopeTests.elm"))))
		assert.False(t, match.Match(filepath.ToSlash(filepath.Join(dir, "tests", "tests.js"))))
		assert.False(t, match.Match(filepath.ToSlash(filepath.Join(dir, "tests", "sub", "Rope.elm"))))
	})

	t.Run("parent directory", func(t *testing.T) {
		root, match, recursive, err := split(filepath.Join(dir, "tests", "..", "*.elm"))
		require.NoError(t, err)

		assert.Equal(t, dir, root)
		assert.False(t, recursive)
		assert.True(t, match.Match(filepath.ToSlash(filepath.Join(dir, "Rope.elm"))))
		assert.False(t, match.Match(filepath.ToSlash(filepath.Join(dir, "tests", "RopeTests.elm"))))
	})

	t.Run("double star is recursive", func(t *testing.T) {
		root, match, recursive, err := split(filepath.Join(dir, "src", "**", "*.js"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "src"), root)
		assert.True(t, recursive)
		assert.True(t, match.Match(filepath.ToSlash(filepath.Join(dir, "src", "a", "b", "c.js"))))
		assert.False(t, match.Match(filepath.ToSlash(filepath.Join(dir, "src", "c.css"))))
	})

	t.Run("glob in a middle segment is recursive", func(t *testing.T) {
		_, _, recursive, err := split(filepath.Join(dir, "*", "main.go"))
		require.NoError(t, err)
		assert.True(t, recursive)
	})

	t.Run("plain paths have no glob", func(t *testing.T) {
		root, match, recursive, err := split(filepath.Join(dir, "tests"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "tests"), root)
		assert.Nil(t, match)
		assert.False(t, recursive)
	})

	t.Run("relative paths are made absolute", func(t *testing.T) {
		cwd, err := os.Getwd()
		require.NoError(t, err)

		root, _, _, err := split("*.go")
		require.NoError(t, err)
		assert.Equal(t, resolve(cwd), root)
	})

	t.Run("invalid globs are errors", func(t *testing.T) {
		_, _, _, err := split(filepath.Join(dir, "[*.elm"))
		assert.Error(t, err)
	})
}

func TestDebounce(t *testing.T) {
	t.Run("batches events", func(t *testing.T) {
		c := make(chan EventInfo)
		out := debounce(50*time.Millisecond, c)

		c <- EventInfo{Path: "a"}
		c <- EventInfo{Path: "b"}

		select {
		case batch := <-out:
			assert.Equal(t, []EventInfo{{Path: "a"}, {Path: "b"}}, batch)
		case <-time.After(time.Second):
			t.Fatal("no batch")
		}

		close(c)
		_, ok := <-out
		assert.False(t, ok)
	})

	t.Run("flushes the open batch on close", func(t *testing.T) {
		c := make(chan EventInfo)
		out := debounce(time.Hour, c)

		c <- EventInfo{Path: "a"}
		close(c)

		assert.Equal(t, []EventInfo{{Path: "a"}}, <-out)
		_, ok := <-out
		assert.False(t, ok)
	})
}

func TestChangeFilter(t *testing.T) {
	var (
		dir  = t.TempDir()
		path = filepath.Join(dir, "Rope.elm")
		f    = newChangeFilter()
	)

	require.NoError(t, os.WriteFile(path, []byte("module Rope"), 0o644))
	assert.True(t, f.changed(path), "first sighting")
	assert.False(t, f.changed(path), "same contents")

	require.NoError(t, os.WriteFile(path, []byte("module Rope exposing (..)"), 0o644))
	assert.True(t, f.changed(path), "new contents")

	require.NoError(t, os.Remove(path))
	assert.True(t, f.changed(path), "removed")

	require.NoError(t, os.WriteFile(path, []byte("module Rope exposing (..)"), 0o644))
	assert.True(t, f.changed(path), "recreated")

	assert.True(t, f.changed(dir), "directory")
}

func TestWatch(t *testing.T) {
	defer func(d time.Duration) { debounceDuration = d }(debounceDuration)
	debounceDuration = 50 * time.Millisecond

	dir := resolve(t.TempDir())
	c, stop, err := Watch(filepath.Join(dir, "*.elm"))
	if err != nil {
		t.Skipf("filesystem notifications unavailable: %s", err)
	}

	// Give the watch a moment to settle before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rope.elm"), []byte("module Rope"), 0o644))

	select {
	case batch := <-c:
		require.NotEmpty(t, batch)
		for _, ev := range batch {
			assert.Equal(t, filepath.Join(dir, "Rope.elm"), ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no events")
	}

	stop()
	for range c {
	}
}
