package fixtures

import (
	"bytes"
	"io"
	"strings"

	"github.com/amonks/rerun/internal/mutex"
)

// MultiWriter records everything written to each of its streams, both per
// stream and combined, with every combined line prefixed by "[id] ".
type MultiWriter struct {
	mu       *mutex.Mutex
	combined bytes.Buffer
	streams  map[string]*bytes.Buffer
}

func NewWriter() *MultiWriter {
	return &MultiWriter{
		mu:      mutex.New("testwriter"),
		streams: map[string]*bytes.Buffer{},
	}
}

func (w *MultiWriter) Writer(id string) io.Writer {
	return writer{mw: w, id: id}
}

// String returns everything written to the stream with the given id.
func (w *MultiWriter) String(id string) string {
	defer w.mu.Lock("String").Unlock()

	if buf, ok := w.streams[id]; ok {
		return buf.String()
	}
	return ""
}

// CombinedString returns every stream's output, in the order it was written.
func (w *MultiWriter) CombinedString() string {
	defer w.mu.Lock("CombinedString").Unlock()

	return w.combined.String()
}

// Lines returns CombinedString split into lines.
func (w *MultiWriter) Lines() []string {
	return strings.Split(w.CombinedString(), "\n")
}

// Count returns the number of times the given line appears in the combined
// output.
func (w *MultiWriter) Count(line string) int {
	var n int
	for _, l := range w.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

type writer struct {
	mw *MultiWriter
	id string
}

func (w writer) Write(bs []byte) (int, error) {
	defer w.mw.mu.Lock("Write:" + w.id).Unlock()

	buf, ok := w.mw.streams[w.id]
	if !ok {
		buf = &bytes.Buffer{}
		w.mw.streams[w.id] = buf
	}
	buf.Write(bs)
	w.mw.combined.WriteString("[" + w.id + "] " + string(bs))
	return len(bs), nil
}
