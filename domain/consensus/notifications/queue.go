package notifications

import (
	"sync"
)

// Queue buffers chain events in the order they are enqueued. Enqueue never
// blocks.
type Queue struct {
	mtx    sync.Mutex
	events []*Event
	signal chan struct{}
}

// NewQueue returns an empty Queue
func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends events to the queue
func (q *Queue) Enqueue(events ...*Event) {
	if len(events) == 0 {
		return
	}

	q.mtx.Lock()
	q.events = append(q.events, events...)
	q.mtx.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Drain removes and returns every queued event
func (q *Queue) Drain() []*Event {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	events := q.events
	q.events = nil
	return events
}

// Len returns the number of queued events
func (q *Queue) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	return len(q.events)
}

// Signal returns a channel that receives after events are enqueued
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}
