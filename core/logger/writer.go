package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter fans log lines out to one or more sinks from a single goroutine.
// Sinks are flushed whenever the queue drains. A sink that fails is dropped and
// the others keep receiving lines; the first failure is reported by Close.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}

	mu     sync.RWMutex
	closed bool

	errMu    sync.Mutex
	writeErr error

	// owned by loop
	sinks []*bufio.Writer
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, bufio.NewWriterSize(w, bufSize))
		}
	}
	aw := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		sinks:    sinks,
	}
	go aw.loop()
	return aw
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case data, ok := <-w.queue:
			if !ok {
				w.flushSinks()
				return
			}
			w.writeSinks(data)
			if len(w.queue) == 0 {
				w.flushSinks()
			}
		case ack := <-w.flushReq:
			ack <- w.flushSinks()
		}
	}
}

// Write enqueues a copy of p. It blocks when the queue is full rather than drop lines.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	data := make([]byte, len(p))
	copy(data, p)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- data
	return nil
}

// Flush waits until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.err()
	}
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
	case <-w.done:
		w.mu.RUnlock()
		return w.err()
	}
	w.mu.RUnlock()
	return <-ack
}

// Close drains the queue and reports the first sink failure.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return w.err()
}

func (w *asyncWriter) writeSinks(p []byte) {
	live := w.sinks[:0]
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			w.setErr(err)
			continue
		}
		live = append(live, sink)
	}
	w.sinks = live
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	live := w.sinks[:0]
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			w.setErr(err)
			errs = append(errs, err)
			continue
		}
		live = append(live, sink)
	}
	w.sinks = live
	return errors.Join(errs...)
}

func (w *asyncWriter) err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.writeErr
}

func (w *asyncWriter) setErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.writeErr == nil {
		w.writeErr = err
	}
}
