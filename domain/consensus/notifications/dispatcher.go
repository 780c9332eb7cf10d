package notifications

import (
	"sync"
)

// Listener receives chain events
type Listener func(event *Event)

// Dispatcher delivers the events of a Queue to listeners on its own
// goroutine. Events are delivered once, in queue order.
type Dispatcher struct {
	queue *Queue

	listenersLock sync.RWMutex
	listeners     map[EventType][]Listener

	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewDispatcher returns a Dispatcher of queue
func NewDispatcher(queue *Queue) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		listeners: make(map[EventType][]Listener),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Subscribe registers listener for events of the given types
func (d *Dispatcher) Subscribe(listener Listener, eventTypes ...EventType) {
	d.listenersLock.Lock()
	defer d.listenersLock.Unlock()

	for _, eventType := range eventTypes {
		d.listeners[eventType] = append(d.listeners[eventType], listener)
	}
}

// Start starts delivering events
func (d *Dispatcher) Start() {
	spawn("Dispatcher.run", d.run)
}

// Stop stops delivering events. Events still queued are delivered first.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.quit)
	})
	<-d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.queue.Signal():
			d.DispatchPending()
		case <-d.quit:
			d.DispatchPending()
			return
		}
	}
}

// DispatchPending synchronously delivers every queued event and returns
// how many were delivered
func (d *Dispatcher) DispatchPending() int {
	events := d.queue.Drain()
	for _, event := range events {
		d.dispatch(event)
	}
	return len(events)
}

func (d *Dispatcher) dispatch(event *Event) {
	d.listenersLock.RLock()
	listeners := d.listeners[event.Type]
	d.listenersLock.RUnlock()

	log.Tracef("Dispatching %s to %d listeners", event, len(listeners))
	for _, listener := range listeners {
		listener(event)
	}
}
