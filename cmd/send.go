package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifier/internal/config"
	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/service"
	"github.com/shaharia-lab/notifier/internal/transport"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
	bannerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type sendOptions struct {
	content  string
	id       string
	email    string
	phone    string
	language string
}

// NewSendCmd returns the "notification-test" subcommand, which sends one
// notification to one recipient through the configured transports.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "notification-test <subject> [channels...]",
		Short: "Send a test notification",
		Long: `Send a notification to a single recipient. The subject and content are
looked up in the translation catalogs using the recipient's language.
Without channels the notification goes to every configured channel.`,
		Example: `  notifier notification-test "Test subject" email sms --recipient-email=alice@example.com --recipient-phone=+48500100200
  notifier notification-test welcome.subject chat --recipient-language=pl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return runSend(ctx, a, cmd.OutOrStdout(), args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.content, "content", "c", "", "Notification content (defaults to the subject)")
	cmd.Flags().StringVar(&opts.id, "recipient-id", "", "Recipient identifier used by chat and push transports")
	cmd.Flags().StringVar(&opts.email, "recipient-email", "", "Recipient email address")
	cmd.Flags().StringVar(&opts.phone, "recipient-phone", "", "Recipient phone number in E.164 format")
	cmd.Flags().StringVar(&opts.language, "recipient-language", cfg.DefaultLocale, "Recipient language used for translation")

	return cmd
}

func runSend(ctx context.Context, a *app, out io.Writer, subject string, channels []string, opts sendOptions) error {
	recipient := notification.Recipient{
		ID:     opts.id,
		Email:  opts.email,
		Phone:  opts.phone,
		Locale: opts.language,
	}
	if err := recipient.Validate(); err != nil {
		return service.NewValidationError(err)
	}

	var nOpts []notification.Option
	if opts.content != "" {
		nOpts = append(nOpts, notification.WithContent(opts.content))
	}
	n := notification.New(subject, channels, nOpts...)

	sendErr := a.svc.Send(ctx, n, recipient)

	// Flush completion events so every "sent" record is written before exit.
	a.bus.Close()

	if sendErr != nil {
		fmt.Fprintln(out, failureStyle.Render("Notification failed"))
		for _, line := range deliveryFailures(sendErr) {
			fmt.Fprintln(out, "  "+line)
		}
		return fmt.Errorf("sending notification: %w", sendErr)
	}

	fmt.Fprintln(out, renderSendBanner(n, recipient))
	return nil
}

func renderSendBanner(n *notification.Notification, r notification.Recipient) string {
	channels := n.Channels()
	if len(channels) == 0 {
		channels = []string{"(all configured)"}
	}
	rows := []string{
		successStyle.Render("Notification sent!"),
		"",
		labelStyle.Render("Subject:  ") + n.Subject(),
		labelStyle.Render("Channels: ") + strings.Join(channels, ", "),
		labelStyle.Render("Language: ") + r.Locale,
	}
	if r.HasEmail() {
		rows = append(rows, labelStyle.Render("Email:    ")+r.Email)
	}
	if r.HasPhone() {
		rows = append(rows, labelStyle.Render("Phone:    ")+r.Phone)
	}
	return bannerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// deliveryFailures flattens a joined transport error into one line per
// failed delivery.
func deliveryFailures(err error) []string {
	var lines []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			lines = append(lines, deliveryFailures(e)...)
		}
		return lines
	}
	var de *transport.DeliveryError
	if errors.As(err, &de) {
		return []string{fmt.Sprintf("%s → %s: %v", de.Channel, de.Recipient, de.Err)}
	}
	return []string{err.Error()}
}
