package transport

import (
	"fmt"
	"sync"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// Registry maps channel identifiers ("email", "sms/test") to transports.
// The first transport registered for a kind also serves the bare kind, so
// "sms" resolves to "sms/test" when that is the only SMS transport.
type Registry struct {
	mu         sync.RWMutex
	transports map[string]Transport
	defaults   map[notification.Kind]string
	order      []notification.Kind
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		transports: make(map[string]Transport),
		defaults:   make(map[notification.Kind]string),
	}
}

// Register adds t under channel. Registering the same channel twice is an error.
func (r *Registry) Register(channel string, t Transport) error {
	ch, err := notification.ParseChannel(channel)
	if err != nil {
		return err
	}
	id := ch.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transports[id]; exists {
		return fmt.Errorf("transport already registered for channel %q", id)
	}
	r.transports[id] = t
	if _, ok := r.defaults[ch.Kind]; !ok || ch.Transport == "" {
		if !ok {
			r.order = append(r.order, ch.Kind)
		}
		r.defaults[ch.Kind] = id
	}
	return nil
}

// Lookup returns the transport serving channel.
func (r *Registry) Lookup(channel string) (Transport, bool) {
	ch, err := notification.ParseChannel(channel)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.transports[ch.String()]; ok {
		return t, true
	}
	if ch.Transport == "" {
		if id, ok := r.defaults[ch.Kind]; ok {
			return r.transports[id], true
		}
	}
	return nil, false
}

// Supports reports whether a transport exists for channel.
func (r *Registry) Supports(channel string) bool {
	_, ok := r.Lookup(channel)
	return ok
}

// DefaultChannels returns one bare kind per registered kind, in registration order.
func (r *Registry) DefaultChannels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, string(k))
	}
	return out
}

// Channels returns every registered channel identifier.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.transports))
	for id := range r.transports {
		out = append(out, id)
	}
	return out
}

// Replace swaps the contents of r for those of other, so components holding
// r see the new transports from their next lookup on.
func (r *Registry) Replace(other *Registry) {
	other.mu.RLock()
	transports := make(map[string]Transport, len(other.transports))
	for id, t := range other.transports {
		transports[id] = t
	}
	defaults := make(map[notification.Kind]string, len(other.defaults))
	for k, id := range other.defaults {
		defaults[k] = id
	}
	order := append([]notification.Kind(nil), other.order...)
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports = transports
	r.defaults = defaults
	r.order = order
}
