package notification

import (
	"log/slog"
)

// Translator resolves a (key, parameters, domain, locale) tuple into text.
// Implementations return the key with parameters substituted when no
// translation exists; they never fail.
type Translator interface {
	Translate(key string, params map[string]string, domain, locale string) string
}

// ChannelSet reports which channels have a transport behind them.
type ChannelSet interface {
	Supports(channel string) bool
	// DefaultChannels is used when a notification declares no channels.
	DefaultChannels() []string
}

// Renderer materializes notifications into per-channel messages.
type Renderer struct {
	channels   ChannelSet
	translator Translator
	logger     *slog.Logger
}

// NewRenderer creates a Renderer. translator may be nil, in which case text
// is never translated.
func NewRenderer(channels ChannelSet, translator Translator, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{channels: channels, translator: translator, logger: logger}
}

// Render returns one message per channel that n targets for r, that has a
// registered transport, and for which r has an address. Channels failing any
// of these checks are skipped without error.
func (rd *Renderer) Render(n *Notification, r Recipient) []Message {
	subject, body := rd.translate(n, r)

	var out []Message
	for _, id := range rd.effectiveChannels(n, r) {
		ch, err := ParseChannel(id)
		if err != nil {
			rd.logger.Debug("skipping unknown channel", "channel", id, "error", err)
			continue
		}
		addr, ok := addressFor(ch.Kind, r)
		if !ok {
			continue
		}
		out = append(out, Message{
			Kind:             ch.Kind,
			Channel:          ch.String(),
			Transport:        ch.Transport,
			Subject:          subject,
			Body:             body,
			RecipientAddress: addr,
		})
	}
	return out
}

func (rd *Renderer) effectiveChannels(n *Notification, r Recipient) []string {
	declared := n.ChannelsFor(r)
	if len(declared) == 0 {
		return rd.channels.DefaultChannels()
	}
	out := make([]string, 0, len(declared))
	for _, id := range declared {
		if rd.channels.Supports(id) {
			out = append(out, id)
			continue
		}
		rd.logger.Debug("no transport for channel", "channel", id)
	}
	return out
}

// translate resolves subject and content for r. Subject and content use
// their own parameter maps.
func (rd *Renderer) translate(n *Notification, r Recipient) (string, string) {
	subject, content := n.Subject(), n.Content()
	if rd.translator == nil || !r.HasLocale() {
		return subject, content
	}
	subject = rd.translator.Translate(subject, n.SubjectParameters(), n.Domain(), r.Locale)
	content = rd.translator.Translate(content, n.ContentParameters(), n.Domain(), r.Locale)
	return subject, content
}
