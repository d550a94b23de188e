package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) Send(ctx context.Context, n *notification.Notification, recipients ...notification.Recipient) error {
	args := m.Called(ctx, n, recipients)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) Close() {
	m.Called()
}
