package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaharia-lab/notifier/internal/config"
	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/storage"
	"github.com/shaharia-lab/notifier/internal/transport"
)

// TransportInfo describes a configured transport without its credentials.
type TransportInfo struct {
	Channel   string `json:"channel"`
	Transport string `json:"transport"`
	DSN       string `json:"dsn"`
}

// TransportService manages the persisted channel to transport configuration
// and keeps the live registry in sync with it.
type TransportService interface {
	// List returns the configured transports in registration order.
	List(ctx context.Context) ([]TransportInfo, error)
	// Set validates dsn, stores it for channel and applies the change.
	Set(ctx context.Context, channel, dsn string) (*TransportInfo, error)
	// Remove deletes the transport of channel and applies the change.
	Remove(ctx context.Context, channel string) error
	// ImportFile adds the entries of a transports YAML file whose channel is
	// not configured yet, and returns how many were added.
	ImportFile(ctx context.Context, filePath string) (int, error)
	// Reload rebuilds the registry from the store.
	Reload(ctx context.Context) error
}

// transportServiceImpl implements TransportService.
type transportServiceImpl struct {
	store    storage.TransportStore
	registry *transport.Registry
	logger   *slog.Logger
	// mu serializes changes so the registry always reflects the latest store state.
	mu sync.Mutex
}

// NewTransportService returns a TransportService that applies every change
// to registry.
func NewTransportService(store storage.TransportStore, registry *transport.Registry, logger *slog.Logger) TransportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &transportServiceImpl{store: store, registry: registry, logger: logger}
}

func (s *transportServiceImpl) List(ctx context.Context) ([]TransportInfo, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TransportInfo, 0, len(entries))
	for _, e := range entries {
		info := TransportInfo{Channel: e.Channel, DSN: transport.RedactDSN(e.DSN)}
		if t, ok := s.registry.Lookup(e.Channel); ok {
			info.Transport = t.Name()
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *transportServiceImpl) Set(ctx context.Context, channel, dsn string) (*TransportInfo, error) {
	entry, t, err := s.validate(config.TransportConfig{Channel: channel, DSN: dsn})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.prepare(ctx, func(entries []config.TransportConfig) []config.TransportConfig {
		for i, e := range entries {
			if e.Channel == entry.Channel {
				entries[i] = entry
				return entries
			}
		}
		return append(entries, entry)
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, err
	}
	s.registry.Replace(next)
	s.logger.Info("transport configured", "channel", entry.Channel, "transport", t.Name())
	return &TransportInfo{Channel: entry.Channel, Transport: t.Name(), DSN: transport.RedactDSN(entry.DSN)}, nil
}

func (s *transportServiceImpl) Remove(ctx context.Context, channel string) error {
	ch, err := notification.ParseChannel(channel)
	if err != nil {
		return &ValidationError{Field: "channel", Message: err.Error()}
	}
	id := ch.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &NotFoundError{Resource: "transport", ID: id}
	}
	next, err := s.prepare(ctx, func(entries []config.TransportConfig) []config.TransportConfig {
		kept := entries[:0]
		for _, e := range entries {
			if e.Channel != id {
				kept = append(kept, e)
			}
		}
		return kept
	})
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrTransportNotFound) {
			return &NotFoundError{Resource: "transport", ID: id}
		}
		return err
	}
	s.registry.Replace(next)
	s.logger.Info("transport removed", "channel", id)
	return nil
}

func (s *transportServiceImpl) ImportFile(ctx context.Context, filePath string) (int, error) {
	entries, err := config.ReadTransportsFile(filePath)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		// Environment references are checked when the registry is built
		// below, so only the shape of each entry is validated here.
		ch, err := notification.ParseChannel(e.Channel)
		if err != nil {
			return 0, &ValidationError{Field: "channel", Message: err.Error()}
		}
		entries[i].Channel = ch.String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.prepare(ctx, func(current []config.TransportConfig) []config.TransportConfig {
		seen := make(map[string]bool, len(current))
		for _, e := range current {
			seen[e.Channel] = true
		}
		for _, e := range entries {
			if !seen[e.Channel] {
				seen[e.Channel] = true
				current = append(current, e)
			}
		}
		return current
	})
	if err != nil {
		return 0, err
	}
	n, err := s.store.Import(ctx, entries)
	if err != nil {
		return 0, err
	}
	s.registry.Replace(next)
	if n > 0 {
		s.logger.Info("imported transports", "file", filePath, "count", n)
	}
	return n, nil
}

func (s *transportServiceImpl) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

func (s *transportServiceImpl) reload(ctx context.Context) error {
	next, err := s.prepare(ctx, func(entries []config.TransportConfig) []config.TransportConfig {
		return entries
	})
	if err != nil {
		return err
	}
	s.registry.Replace(next)
	return nil
}

// prepare builds the registry the store would describe after change is
// applied to its entries. Callers write to the store only when it succeeds,
// so a change that leaves the configuration unbuildable changes nothing.
func (s *transportServiceImpl) prepare(ctx context.Context, change func([]config.TransportConfig) []config.TransportConfig) (*transport.Registry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	next, err := config.BuildRegistry(change(entries), s.logger)
	if err != nil {
		return nil, fmt.Errorf("building transports: %w", err)
	}
	return next, nil
}

// validate canonicalizes the channel and builds the transport once so that
// broken DSNs are rejected before they are stored.
func (s *transportServiceImpl) validate(entry config.TransportConfig) (config.TransportConfig, transport.Transport, error) {
	ch, err := notification.ParseChannel(entry.Channel)
	if err != nil {
		return entry, nil, &ValidationError{Field: "channel", Message: err.Error()}
	}
	entry.Channel = ch.String()
	if entry.DSN == "" {
		return entry, nil, &ValidationError{Field: "dsn", Message: "is required"}
	}
	t, err := entry.Build(s.logger)
	if err != nil {
		return entry, nil, &ValidationError{Field: "dsn", Message: err.Error()}
	}
	return entry, t, nil
}
