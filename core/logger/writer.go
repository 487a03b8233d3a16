package logger

import (
	"io"
	"sync"
)

// asyncWriter fans log lines out to multiple sinks from a single goroutine
// so slow sinks never block handlers.
type asyncWriter struct {
	writers []io.Writer
	lines   chan []byte
	done    chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 4096
	}
	w := &asyncWriter{
		writers: writers,
		lines:   make(chan []byte, bufSize/64),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for line := range w.lines {
		w.writeAll(line)
	}
}

// Write enqueues a line; when the queue is saturated it writes synchronously
// rather than dropping the line.
func (w *asyncWriter) Write(p []byte) error {
	line := make([]byte, len(p))
	copy(line, p)
	select {
	case w.lines <- line:
		return nil
	default:
		w.writeAll(line)
		return w.getErr()
	}
}

// Close drains pending lines and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.once.Do(func() {
		close(w.lines)
	})
	<-w.done
	return w.getErr()
}

func (w *asyncWriter) writeAll(p []byte) {
	for _, sink := range w.writers {
		if _, err := sink.Write(p); err != nil {
			w.setErr(err)
		}
	}
}

func (w *asyncWriter) getErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
