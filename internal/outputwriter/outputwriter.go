// Package outputwriter buffers a task's output into whole lines, so that
// lines from different streams never interleave mid-line.
package outputwriter

import (
	"bufio"
	"io"

	"github.com/amonks/rerun/internal/mutex"
)

type Writer struct {
	buf *bufio.Writer
	mu  *mutex.Mutex
}

func New(w io.Writer) *Writer {
	return &Writer{
		buf: bufio.NewWriter(w),
		mu:  mutex.New("linebuffered"),
	}
}

// Write buffers bs, passing each complete line through to the underlying
// writer as soon as its newline arrives.
func (w *Writer) Write(bs []byte) (n int, err error) {
	defer w.mu.Lock("Write").Unlock()

	for _, b := range bs {
		if err = w.buf.WriteByte(b); err != nil {
			return n, err
		}
		n++
		if b == '\n' {
			if err = w.buf.Flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush writes out a trailing partial line, if there is one, terminating it
// with a newline.
func (w *Writer) Flush() error {
	defer w.mu.Lock("Flush").Unlock()

	if w.buf.Buffered() == 0 {
		return nil
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}
