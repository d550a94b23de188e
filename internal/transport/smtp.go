package transport

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// SMTPConfig holds connection parameters for the SMTP transport.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromAddr   string
	Encryption string // "none", "starttls", "ssl_tls"
}

// SMTPTransport delivers email notifications via SMTP using the go-mail library.
type SMTPTransport struct {
	config SMTPConfig
}

// NewSMTPTransport creates a new SMTPTransport with the given configuration.
func NewSMTPTransport(config SMTPConfig) *SMTPTransport {
	return &SMTPTransport{config: config}
}

// Name returns the transport identifier.
func (t *SMTPTransport) Name() string { return "smtp" }

// Supports accepts email messages only.
func (t *SMTPTransport) Supports(msg notification.Message) bool {
	return msg.Kind == notification.KindEmail
}

// Send delivers msg to its recipient address using the configured SMTP server.
func (t *SMTPTransport) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	if !t.Supports(msg) {
		return nil, ErrUnsupportedMessage
	}
	m, err := t.buildMsg(msg)
	if err != nil {
		return nil, err
	}

	c, err := mail.NewClient(t.config.Host, t.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return nil, fmt.Errorf("sending mail via %s: %w", t.config.Host, err)
	}
	return &SentMessage{Original: msg, MessageID: m.GetMessageID(), Transport: t.Name()}, nil
}

func (t *SMTPTransport) buildMsg(msg notification.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(t.config.FromAddr); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.RecipientAddress); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.RecipientAddress, err)
	}
	m.SetMessageID()
	m.Subject(msg.Subject)

	// Plain-text fallback for clients that don't render HTML.
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if html, err := buildEmailHTML(msg.Subject, msg.Body); err == nil {
		m.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return m, nil
}

func (t *SMTPTransport) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.config.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(t.config.Encryption)),
	}
	if t.config.Encryption == "ssl_tls" {
		opts = append(opts, mail.WithSSL())
	}
	if t.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.config.Username),
			mail.WithPassword(t.config.Password),
		)
	}
	return opts
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
