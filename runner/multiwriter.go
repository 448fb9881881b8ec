package runner

import (
	"io"

	"github.com/amonks/rerun/internal/mutex"
	"github.com/amonks/rerun/internal/outputwriter"
)

// A MultiWriter provides one output stream per task ID, plus the meta streams
// [InternalTaskRunner] and [InternalTaskWatch]. The [printer] package
// provides a MultiWriter that interleaves streams onto a terminal.
//
// [printer]: https://pkg.go.dev/github.com/amonks/rerun/printer
type MultiWriter interface {
	Writer(id string) io.Writer
}

// lineBuffered wraps a MultiWriter so that each stream only passes whole
// lines through.
type lineBuffered struct {
	mu      *mutex.Mutex
	base    MultiWriter
	writers map[string]*outputwriter.Writer
}

func newLineBuffered(mw MultiWriter) *lineBuffered {
	return &lineBuffered{
		mu:      mutex.New("linebuffered-multiwriter"),
		base:    mw,
		writers: map[string]*outputwriter.Writer{},
	}
}

var _ MultiWriter = &lineBuffered{}

func (lb *lineBuffered) Writer(id string) io.Writer { return lb.writer(id) }

func (lb *lineBuffered) writer(id string) *outputwriter.Writer {
	defer lb.mu.Lock("Writer:" + id).Unlock()

	if w, has := lb.writers[id]; has {
		return w
	}
	lb.writers[id] = outputwriter.New(lb.base.Writer(id))
	return lb.writers[id]
}
