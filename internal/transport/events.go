package transport

// EventMessageSent is the event type published once per accepted message.
const EventMessageSent = "notification.message.sent"

// CompletionEvent carries the delivery metadata of one accepted message.
type CompletionEvent struct {
	MessageID   string
	Transport   string
	Subject     string
	RecipientID string
	Channel     string
}

// NewCompletionEvent builds the event for an acknowledgement.
func NewCompletionEvent(sent *SentMessage) CompletionEvent {
	return CompletionEvent{
		MessageID:   sent.MessageID,
		Transport:   sent.Transport,
		Subject:     sent.Original.Subject,
		RecipientID: sent.Original.RecipientAddress,
		Channel:     sent.Original.Channel,
	}
}

// Payload encodes the event for the event bus.
func (e CompletionEvent) Payload() map[string]string {
	return map[string]string{
		"id":           e.MessageID,
		"transport":    e.Transport,
		"subject":      e.Subject,
		"recipient_id": e.RecipientID,
		"channel":      e.Channel,
	}
}

// CompletionEventFromPayload decodes an event bus payload.
func CompletionEventFromPayload(p map[string]string) CompletionEvent {
	return CompletionEvent{
		MessageID:   p["id"],
		Transport:   p["transport"],
		Subject:     p["subject"],
		RecipientID: p["recipient_id"],
		Channel:     p["channel"],
	}
}
