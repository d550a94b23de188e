package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifier/internal/config"
)

// MockTransportStore is a mock implementation of storage.TransportStore.
type MockTransportStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockTransportStore) List(ctx context.Context) ([]config.TransportConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]config.TransportConfig), args.Error(1)
}

//nolint:revive
func (m *MockTransportStore) Get(ctx context.Context, channel string) (*config.TransportConfig, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.TransportConfig), args.Error(1)
}

//nolint:revive
func (m *MockTransportStore) Save(ctx context.Context, cfg config.TransportConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

//nolint:revive
func (m *MockTransportStore) Delete(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

//nolint:revive
func (m *MockTransportStore) Import(ctx context.Context, entries []config.TransportConfig) (int, error) {
	args := m.Called(ctx, entries)
	return args.Int(0), args.Error(1)
}
