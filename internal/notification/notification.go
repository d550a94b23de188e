// Package notification holds the dispatch core: recipients, notifications,
// rendered messages and the renderer that turns a notification and a
// recipient into one message per applicable channel.
package notification

import (
	"maps"
	"slices"
	"strings"
)

// DefaultDomain is the translation catalog used when a notification does not
// name one.
const DefaultDomain = "messages"

// ChannelPolicy picks the channels for a specific recipient, overriding the
// channels declared on the notification.
type ChannelPolicy func(Recipient) []string

// Notification describes what to send and where. It is immutable once built;
// accessors return copies.
type Notification struct {
	subject           string
	content           string
	subjectParameters map[string]string
	contentParameters map[string]string
	domain            string
	channels          []string
	policy            ChannelPolicy
}

// Option configures a Notification during New.
type Option func(*Notification)

// WithContent sets the body text (or translation key).
func WithContent(content string) Option {
	return func(n *Notification) { n.content = content }
}

// WithSubjectParameters sets the parameters substituted into the subject only.
func WithSubjectParameters(params map[string]string) Option {
	return func(n *Notification) { n.subjectParameters = maps.Clone(params) }
}

// WithContentParameters sets the parameters substituted into the content only.
func WithContentParameters(params map[string]string) Option {
	return func(n *Notification) { n.contentParameters = maps.Clone(params) }
}

// WithDomain sets the translation catalog namespace.
func WithDomain(domain string) Option {
	return func(n *Notification) { n.domain = domain }
}

// WithChannelPolicy installs a per-recipient channel override.
func WithChannelPolicy(p ChannelPolicy) Option {
	return func(n *Notification) { n.policy = p }
}

// New builds a notification. Channels are trimmed and de-duplicated, keeping
// the first occurrence. An empty channel list means every channel the
// recipient and the transport registry support.
func New(subject string, channels []string, opts ...Option) *Notification {
	n := &Notification{
		subject:  subject,
		domain:   DefaultDomain,
		channels: normalizeChannels(channels),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.domain == "" {
		n.domain = DefaultDomain
	}
	return n
}

func normalizeChannels(channels []string) []string {
	out := make([]string, 0, len(channels))
	for _, c := range channels {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Subject returns the raw subject.
func (n *Notification) Subject() string { return n.subject }

// Content returns the raw content. A notification built without content
// carries its subject as content, so the "scheduled" record and every
// rendered body show the subject text rather than an empty string. The
// subject used this way is still translated with the content parameters.
func (n *Notification) Content() string {
	if n.content == "" {
		return n.subject
	}
	return n.content
}

// SubjectParameters returns a copy of the subject parameters.
func (n *Notification) SubjectParameters() map[string]string { return maps.Clone(n.subjectParameters) }

// ContentParameters returns a copy of the content parameters.
func (n *Notification) ContentParameters() map[string]string { return maps.Clone(n.contentParameters) }

// Domain returns the translation catalog namespace.
func (n *Notification) Domain() string { return n.domain }

// Channels returns the declared channels.
func (n *Notification) Channels() []string { return slices.Clone(n.channels) }

// ChannelsFor returns the channels for r: the policy result when a policy is
// installed, the declared channels otherwise.
func (n *Notification) ChannelsFor(r Recipient) []string {
	if n.policy != nil {
		return normalizeChannels(n.policy(r))
	}
	return n.Channels()
}
