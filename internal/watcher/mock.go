package watcher

import (
	"fmt"
	"sync"
)

var original = Watch

var (
	mocks   map[string]chan []EventInfo
	mocksmu sync.Mutex
)

// Mock replaces Watch with a fake whose events are sent by [Dispatch]. Each
// pattern gets its own fake event stream.
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[string]chan []EventInfo{}
	Watch = func(pattern string) (<-chan []EventInfo, func(), error) {
		mocksmu.Lock()
		defer mocksmu.Unlock()

		mock := make(chan []EventInfo)
		mocks[pattern] = mock

		var once sync.Once
		stop := func() {
			once.Do(func() {
				mocksmu.Lock()
				defer mocksmu.Unlock()

				if mocks[pattern] == mock {
					delete(mocks, pattern)
				}
				close(mock)
			})
		}
		return mock, stop, nil
	}
}

// Dispatch sends a change to path through the fake watch on pattern. It
// blocks until the watcher's consumer receives the event.
func Dispatch(pattern, path string) {
	mocksmu.Lock()
	mock, hasMock := mocks[pattern]
	mocksmu.Unlock()

	if !hasMock {
		panic(fmt.Errorf("can't dispatch on unwatched pattern '%s'", pattern))
	}
	mock <- []EventInfo{{Path: path, Event: "Write"}}
}

// IsWatched reports whether a fake watch on pattern is active.
func IsWatched(pattern string) bool {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	_, has := mocks[pattern]
	return has
}

// Unmock restores the real Watch.
func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = nil
	Watch = original
}
