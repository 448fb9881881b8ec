package watcher

import (
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// changeFilter remembers a content hash for every file it has seen, so that
// events which don't change a file's contents (a chmod, an editor saving an
// unmodified buffer, the second of two events for one write) can be dropped.
type changeFilter struct {
	mu   sync.Mutex
	sums map[string]uint64
}

func newChangeFilter() *changeFilter {
	return &changeFilter{sums: map[string]uint64{}}
}

// changed reports whether the file at path differs from the last time
// changed was called for it. Anything that can't be read as a file (a removed
// file, a directory) counts as changed.
func (f *changeFilter) changed(path string) bool {
	bs, err := os.ReadFile(path)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		delete(f.sums, path)
		return true
	}

	sum := xxhash.Sum64(bs)
	if prev, seen := f.sums[path]; seen && prev == sum {
		return false
	}
	f.sums[path] = sum
	return true
}
