package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/service"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.ValidationError
		expected string
	}{
		{
			name:     "with field and message",
			err:      &service.ValidationError{Field: "subject", Message: "is required"},
			expected: `validation error for "subject": is required`,
		},
		{
			name:     "without field - returns message only",
			err:      &service.ValidationError{Field: "", Message: "invalid request body"},
			expected: "invalid request body",
		},
		{
			name:     "both empty",
			err:      &service.ValidationError{Field: "", Message: ""},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewValidationError(t *testing.T) {
	tests := []struct {
		name      string
		recipient notification.Recipient
		field     string
		message   string
	}{
		{
			name:      "bad email",
			recipient: notification.Recipient{Email: "not-an-email"},
			field:     "email",
			message:   "must be a valid email address",
		},
		{
			name:      "bad phone",
			recipient: notification.Recipient{Phone: "600 123 456"},
			field:     "phone",
			message:   "must be a phone number in E.164 format",
		},
		{
			name:      "locale too short",
			recipient: notification.Recipient{Locale: "p"},
			field:     "locale",
			message:   "length must satisfy min=2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recipient.Validate()
			if !assert.Error(t, err) {
				return
			}
			ve := service.NewValidationError(err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestNewValidationError_PlainError(t *testing.T) {
	ve := service.NewValidationError(errors.New("boom"))
	assert.Empty(t, ve.Field)
	assert.Equal(t, "boom", ve.Message)
}

func TestNotFoundError_Error(t *testing.T) {
	err := &service.NotFoundError{Resource: "transport", ID: "sms/test"}
	assert.Equal(t, `transport "sms/test" not found`, err.Error())
}
