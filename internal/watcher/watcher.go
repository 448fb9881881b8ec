package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/rjeczalik/notify"
)

type EventInfo struct {
	Path  string
	Event string
}

// debounceDuration is how long a batch stays open after its first event.
var debounceDuration = 500 * time.Millisecond

// Watch watches for changes to files matching the given pattern, which may be
// relative to the working directory, and may contain globs (see [split]).
// Events are delivered in batches, each holding everything that changed
// within debounceDuration of the batch's first event. Events for files whose
// contents haven't changed since they were last seen are dropped.
//
// Calling stop ends the watch and closes the returned channel once any
// pending batch is delivered; the caller must keep reading until then.
//
// Watch is a variable so that tests can replace it; see [Mock].
var Watch = func(pattern string) (<-chan []EventInfo, func(), error) {
	root, match, recursive, err := split(pattern)
	if err != nil {
		return nil, nil, err
	}

	c := make(chan notify.EventInfo, 16)
	out := make(chan EventInfo)
	changes := newChangeFilter()

	go func() {
		defer close(out)
		for ev := range c {
			p := ev.Path()
			if match != nil && !match.Match(filepath.ToSlash(p)) {
				continue
			}
			if !changes.changed(p) {
				continue
			}
			out <- EventInfo{
				Path:  p,
				Event: strings.TrimPrefix(ev.Event().String(), "notify."),
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			notify.Stop(c)
			close(c)
		})
	}

	watchPath := root
	if recursive {
		watchPath = filepath.Join(root, "...")
	}
	if err := notify.Watch(watchPath, c, notify.All); err != nil {
		stop()
		return nil, nil, fmt.Errorf("watching '%s': %w", pattern, err)
	}

	return debounce(debounceDuration, out), stop, nil
}

// debounce collects events into batches. A batch opens with its first event
// and is sent dur later. The returned channel is closed after c is closed and
// the last batch is sent.
func debounce(dur time.Duration, c <-chan EventInfo) <-chan []EventInfo {
	debounced := make(chan []EventInfo)

	go func() {
		defer close(debounced)

		var (
			batch []EventInfo
			timer <-chan time.Time
		)
		for {
			select {
			case ev, ok := <-c:
				if !ok {
					if len(batch) > 0 {
						debounced <- batch
					}
					return
				}
				batch = append(batch, ev)
				if timer == nil {
					timer = time.After(dur)
				}
			case <-timer:
				debounced <- batch
				batch, timer = nil, nil
			}
		}
	}()

	return debounced
}

// split breaks a given input path (which may contain a glob) into two parts:
// a directory to watch, and a glob to match events from that watch against.
// Both are absolute, so patterns may reach out of the working directory with
// "..".
//
// For example, given the input "src/website/**/*.js",
//   - we will set up a recursive watch at $PWD/src/website
//   - we will match events from that watch against the glob
//     "$PWD/src/website/**/*.js"
//
// Globs use '/' as a separator: "*" stays within one directory, and "**"
// crosses directories. The watch is only recursive if the glob can match
// below the watched directory. Inputs without a glob are watched as-is and
// every event is reported.
func split(input string) (root string, match glob.Glob, recursive bool, err error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", nil, false, err
	}

	segments := strings.Split(filepath.ToSlash(abs), "/")
	for i, seg := range segments {
		if !strings.ContainsAny(seg, "*?[{") {
			continue
		}

		root = resolve(filepath.FromSlash(strings.Join(segments[:i], "/")))
		rest := strings.Join(segments[i:], "/")
		prefix := strings.TrimSuffix(glob.QuoteMeta(filepath.ToSlash(root)), "/") + "/"

		match, err = glob.Compile(prefix+rest, '/')
		if err != nil {
			return "", nil, false, fmt.Errorf("invalid watch pattern '%s': %w", input, err)
		}
		recursive = strings.Contains(rest, "**") || i < len(segments)-1
		return root, match, recursive, nil
	}

	return resolve(abs), nil, false, nil
}

// resolve follows symlinks, since notify reports events under the resolved
// path. Paths that don't exist yet are returned unchanged.
func resolve(path string) string {
	if path == "" {
		return string(filepath.Separator)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
