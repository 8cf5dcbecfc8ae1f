// Package linebuf splits a byte stream into lines.
package linebuf

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that splits its input on newlines
// and hands each line, without the newline, to a callback.
//
// Partial lines are held until the next newline or Flush.
// Writer is safe for concurrent use.
type Writer struct {
	emit func(string)

	mu   sync.Mutex // guards buff
	buff bytes.Buffer
}

// New builds a Writer that calls emit once per line.
func New(emit func(line string)) *Writer {
	return &Writer{emit: emit}
}

// Write buffers bs and emits every complete line it contains.
// It never fails.
func (w *Writer) Write(bs []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(bs)
	for len(bs) > 0 {
		idx := bytes.IndexByte(bs, '\n')
		if idx < 0 {
			w.buff.Write(bs)
			break
		}

		var line []byte
		line, bs = bs[:idx], bs[idx+1:]
		if w.buff.Len() == 0 {
			w.emit(string(line))
			continue
		}

		w.buff.Write(line)
		w.emit(w.buff.String())
		w.buff.Reset()
	}
	return total, nil
}

// Flush emits any buffered partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buff.Len() > 0 {
		w.emit(w.buff.String())
		w.buff.Reset()
	}
}
