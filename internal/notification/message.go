package notification

// Message is the channel-specific projection of a notification for one
// recipient, after translation.
type Message struct {
	Kind Kind `json:"kind"`
	// Channel is the full channel identifier, e.g. "sms/failover_test".
	Channel string `json:"channel"`
	// Transport is the sub-provider part of Channel; empty for bare kinds.
	Transport        string `json:"transport,omitempty"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
	RecipientAddress string `json:"recipient_address,omitempty"`
}

// addressFor returns the address of r for kind k and whether k can be
// delivered to r at all.
func addressFor(k Kind, r Recipient) (string, bool) {
	switch k {
	case KindEmail:
		return r.Email, r.HasEmail()
	case KindSMS:
		return r.Phone, r.HasPhone()
	case KindChat, KindPush:
		return r.ID, true
	}
	return "", false
}
