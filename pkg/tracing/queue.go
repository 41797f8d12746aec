// Package tracing writes the human readable trace of a run: the steps as they
// execute, their outcome and timings.
package tracing

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrQueueClosed is returned when enqueueing into a closed queue.
var ErrQueueClosed = errors.New("trace queue is closed")

// Listener receives trace output. Test output belongs to the executing test;
// tool output is diagnostics from the runtime itself.
type Listener interface {
	WriteTestOutput(msg string)
	WriteToolOutput(msg string)
}

// WriterListener writes each message as a line to w.
type WriterListener struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterListener(w io.Writer) *WriterListener {
	return &WriterListener{w: w}
}

func (l *WriterListener) WriteTestOutput(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, msg)
}

func (l *WriterListener) WriteToolOutput(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, "-> "+msg)
}

type message struct {
	text string
	tool bool
}

// Queue funnels messages from many workers into one listener. A single
// goroutine writes, so the listener never sees concurrent calls and each
// message is written whole.
type Queue struct {
	listener Listener

	mu     sync.RWMutex
	closed bool
	ch     chan message
	done   chan struct{}
}

// NewQueue starts the writer goroutine. Close must be called to stop it.
func NewQueue(l Listener, buffer int) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	q := &Queue{
		listener: l,
		ch:       make(chan message, buffer),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for m := range q.ch {
		if m.tool {
			q.listener.WriteToolOutput(m.text)
		} else {
			q.listener.WriteTestOutput(m.text)
		}
	}
}

// Enqueue admits a message. With a worker ID the message is prefixed so
// output of parallel workers can be told apart.
func (q *Queue) Enqueue(workerID, msg string, tool bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if workerID != "" {
		msg = "#" + workerID + ": " + msg
	}
	q.ch <- message{text: msg, tool: tool}
	return nil
}

// Close stops accepting messages and waits until every admitted message was
// written.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}

// WorkerListener is the Listener a single worker writes through.
type WorkerListener struct {
	queue    *Queue
	workerID string
}

// ForWorker returns a listener that enqueues with the given worker ID.
func (q *Queue) ForWorker(workerID string) *WorkerListener {
	return &WorkerListener{queue: q, workerID: workerID}
}

func (w *WorkerListener) WriteTestOutput(msg string) {
	_ = w.queue.Enqueue(w.workerID, msg, false)
}

func (w *WorkerListener) WriteToolOutput(msg string) {
	_ = w.queue.Enqueue(w.workerID, msg, true)
}
