package notification

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Recipient is the addressable target of a notification. Empty fields are
// treated as absent: a recipient without Phone never receives SMS, and a
// recipient without Locale is never translated.
type Recipient struct {
	ID     string `json:"id,omitempty"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Phone  string `json:"phone,omitempty" validate:"omitempty,e164"`
	Locale string `json:"locale,omitempty" validate:"omitempty,min=2,max=35"`
}

// HasEmail reports whether the recipient can receive email.
func (r Recipient) HasEmail() bool { return r.Email != "" }

// HasPhone reports whether the recipient can receive SMS.
func (r Recipient) HasPhone() bool { return r.Phone != "" }

// HasLocale reports whether the recipient's messages should be translated.
func (r Recipient) HasLocale() bool { return r.Locale != "" }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recipientValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the format of the contact fields that are present.
func (r Recipient) Validate() error {
	if err := recipientValidator().Struct(r); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	return nil
}
