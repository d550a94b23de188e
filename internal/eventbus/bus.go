// Package eventbus provides the publish/subscribe stream that carries
// transport completion events. The default implementation is in-memory and
// asynchronous: events go through a buffered channel and are processed by a
// worker pool. A NATS-backed implementation is available for multi-process
// deployments.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues an event with the given type and payload. It blocks
	// while the buffer is full so that no event is ever lost; events
	// published after Close are discarded.
	Publish(eventType string, payload map[string]string)

	// Subscribe registers a listener that will be called for every published
	// event (broadcast) until the returned Subscription is unsubscribed.
	Subscribe(listener Listener) Subscription

	// Close stops accepting new events and waits for all pending events to be processed.
	Close()
}

type subscriber struct {
	id       uint64
	listener Listener
}

// inMemoryBus is the default EventBus implementation.
type inMemoryBus struct {
	ch        chan Event
	listeners []subscriber
	nextID    uint64
	mu        sync.RWMutex
	wg        sync.WaitGroup
	workers   int
	logger    *slog.Logger

	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New creates a new in-memory EventBus with the specified number of worker goroutines.
// If workers is <= 0, defaultWorkers (3) is used.
func New(workers int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Event, defaultBufferSize),
		workers: workers,
		logger:  logger,
	}
	b.startWorkers()
	return b
}

// startWorkers launches the worker goroutines that process events from the channel.
func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
}

// dispatch calls all registered listeners for the given event.
// Each listener is invoked with panic recovery to prevent one bad listener
// from affecting others.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.RLock()
	listeners := make([]subscriber, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, s := range listeners {
		safeCall(b.logger, s.listener, e)
	}
}

func safeCall(logger *slog.Logger, l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("eventbus: listener panicked", "event", e.Type, "panic", r)
		}
	}()
	l(e)
}

// Publish enqueues an event.
func (b *inMemoryBus) Publish(eventType string, payload map[string]string) {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		b.logger.Warn("eventbus: publish after close, dropping event", "event", eventType)
		return
	}
	b.ch <- e
}

// Subscribe adds a listener to receive all future events.
func (b *inMemoryBus) Subscribe(listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscriber{id: id, listener: listener})

	var once sync.Once
	return subscriptionFunc(func() {
		once.Do(func() { b.remove(id) })
	})
}

func (b *inMemoryBus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Close drains and closes the event channel, then waits for all workers to finish.
func (b *inMemoryBus) Close() {
	b.closeOnce.Do(func() {
		b.closeMu.Lock()
		b.closed = true
		close(b.ch)
		b.closeMu.Unlock()
		b.wg.Wait()
	})
}
