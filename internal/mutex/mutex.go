// Package mutex provides a sync.Mutex that can narrate its own locking, which
// is the fastest way to find a deadlock between the runner and its watchers.
package mutex

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Flip to true to write every lock, unlock, and Printf to mutex.log.
const debug = false

var (
	logOnce sync.Once
	logfile *os.File
)

// Mutex wraps sync.Mutex, adding:
//   - `defer mu.Lock("reason").Unlock()` in a single line
//   - a named trace of lock activity when debug is on
type Mutex struct {
	name string
	mu   sync.Mutex
}

func New(name string) *Mutex {
	mu := &Mutex{name: name}
	mu.Printf("--- begin ---")
	return mu
}

func (mu *Mutex) Lock(reason string) *Mutex {
	mu.Printf("%s seeks lock", reason)
	mu.mu.Lock()
	mu.Printf("%s receives lock", reason)
	return mu
}

func (mu *Mutex) Unlock() {
	mu.Printf("releases lock")
	mu.mu.Unlock()
}

// Printf writes a line to the debug log. It does nothing unless debug is on.
func (mu *Mutex) Printf(f string, args ...any) {
	if !debug {
		return
	}
	logOnce.Do(func() {
		f, err := os.Create("mutex.log")
		if err != nil {
			panic(err)
		}
		logfile = f
	})
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.StampNano), mu.name)
	fmt.Fprintf(logfile, prefix+strings.TrimSpace(f)+"\n", args...)
}
