package eventbus

import "time"

// Event represents a notification lifecycle event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery to the listener. Calling it more than once is a no-op.
	Unsubscribe()
}

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() { f() }
