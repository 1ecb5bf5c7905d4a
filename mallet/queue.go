package mallet

import (
	"runtime"
	"sync/atomic"
)

// Queue is a fixed-capacity single-producer/single-consumer ring of
// messages. Pop never blocks and never allocates; Push waits for space
// instead of dropping.
type Queue struct {
	buf  []Message
	mask uint64
	head atomic.Uint64 // next slot to read, owned by the consumer
	tail atomic.Uint64 // next slot to write, owned by the producer
}

// NewQueue creates a queue holding at least size messages (rounded up to a
// power of two, minimum 2).
func NewQueue(size int) *Queue {
	n := 2
	for n < size {
		n <<= 1
	}
	return &Queue{
		buf:  make([]Message, n),
		mask: uint64(n - 1),
	}
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// TryPush enqueues m and reports false if the queue is full.
func (q *Queue) TryPush(m Message) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = m
	q.tail.Store(tail + 1)
	return true
}

// Push enqueues m, yielding while the consumer catches up.
func (q *Queue) Push(m Message) {
	for !q.TryPush(m) {
		runtime.Gosched()
	}
}

// Pop dequeues the oldest message.
func (q *Queue) Pop() (Message, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Message{}, false
	}
	m := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return m, true
}
