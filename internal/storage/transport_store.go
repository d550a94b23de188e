package storage

import (
	"context"
	"errors"

	"github.com/shaharia-lab/notifier/internal/config"
)

// ErrTransportNotFound is returned when deleting a channel that has no transport.
var ErrTransportNotFound = errors.New("transport not found")

// TransportStore persists the channel to transport configuration. Entries
// keep the order in which they were first saved; the first entry of a kind
// serves the bare kind.
type TransportStore interface {
	// List returns all entries in insertion order.
	List(ctx context.Context) ([]config.TransportConfig, error)
	// Get returns the entry for channel, or nil if there is none.
	Get(ctx context.Context, channel string) (*config.TransportConfig, error)
	// Save inserts or updates the entry for cfg.Channel. Updates keep the
	// entry's position.
	Save(ctx context.Context, cfg config.TransportConfig) error
	// Delete removes the entry for channel.
	Delete(ctx context.Context, channel string) error
	// Import inserts every entry whose channel is not stored yet, in a single
	// transaction, and returns how many were inserted.
	Import(ctx context.Context, entries []config.TransportConfig) (int, error)
}
