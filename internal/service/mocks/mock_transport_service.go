package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifier/internal/service"
)

// MockTransportService is a mock implementation of service.TransportService.
type MockTransportService struct {
	mock.Mock
}

//nolint:revive
func (m *MockTransportService) List(ctx context.Context) ([]service.TransportInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TransportInfo), args.Error(1)
}

//nolint:revive
func (m *MockTransportService) Set(ctx context.Context, channel, dsn string) (*service.TransportInfo, error) {
	args := m.Called(ctx, channel, dsn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransportInfo), args.Error(1)
}

//nolint:revive
func (m *MockTransportService) Remove(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

//nolint:revive
func (m *MockTransportService) ImportFile(ctx context.Context, filePath string) (int, error) {
	args := m.Called(ctx, filePath)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockTransportService) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
