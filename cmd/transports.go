package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifier/internal/config"
	"github.com/shaharia-lab/notifier/internal/service"
)

// NewTransportsCmd returns the "transports" command group that manages the
// channel to transport configuration.
func NewTransportsCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transports",
		Short: "Manage the transports serving each channel",
		Long: `Manage the transports serving each channel. A channel is a kind (chat, email,
sms, push) optionally followed by a transport name, as in "sms/twilio". The
first transport configured for a kind also serves the bare kind.

DSNs may reference environment variables as ${ENV:NAME}. Combine DSNs with
"||" for failover or "&&" for round-robin.`,
	}

	cmd.AddCommand(
		newTransportsListCmd(cfg),
		newTransportsSetCmd(cfg),
		newTransportsRemoveCmd(cfg),
		newTransportsImportCmd(cfg),
	)
	return cmd
}

// withTransports runs fn against the transport service of a freshly wired app.
func withTransports(cmd *cobra.Command, cfg *config.AppConfig, fn func(service.TransportService) error) error {
	a, err := newApp(cmd.Context(), cfg, appOptions{tolerateBrokenTransports: true})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.transports)
}

func newTransportsListCmd(cfg *config.AppConfig) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured transports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTransports(cmd, cfg, func(svc service.TransportService) error {
				list, err := svc.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing transports: %w", err)
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				printTransports(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print transports as JSON")
	return cmd
}

func newTransportsSetCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "set <channel> <dsn>",
		Short: "Add or replace the transport of a channel",
		Example: `  notifier transports set email 'smtp://user:${ENV:SMTP_PASSWORD}@smtp.example.com:587?from=noreply@example.com'
  notifier transports set sms/failover_test 'failing://default || null://null'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransports(cmd, cfg, func(svc service.TransportService) error {
				info, err := svc.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n",
					successStyle.Render("Saved"), info.Channel, info.Transport)
				return nil
			})
		},
	}
}

func newTransportsRemoveCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <channel>",
		Aliases: []string{"rm"},
		Short:   "Remove the transport of a channel",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransports(cmd, cfg, func(svc service.TransportService) error {
				if err := svc.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Removed"), args[0])
				return nil
			})
		},
	}
}

func newTransportsImportCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import transports from a YAML file",
		Long: `Import the transports declared in a YAML file. Channels that are already
configured are left untouched. Defaults to the NOTIFIER_TRANSPORTS_FILE path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := cfg.TransportsFile
			if len(args) == 1 {
				file = args[0]
			}
			return withTransports(cmd, cfg, func(svc service.TransportService) error {
				n, err := svc.ImportFile(cmd.Context(), file)
				if err != nil {
					return fmt.Errorf("importing %s: %w", file, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d transport(s) from %s\n", successStyle.Render("Imported"), n, file)
				return nil
			})
		},
	}
}

func printTransports(w io.Writer, list []service.TransportInfo) {
	if len(list) == 0 {
		fmt.Fprintln(w, labelStyle.Render("No transports configured. Add one with: notifier transports set <channel> <dsn>"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers("CHANNEL", "TRANSPORT", "DSN")
	for _, info := range list {
		name := info.Transport
		if name == "" {
			name = failureStyle.Render("unavailable")
		}
		t.Row(info.Channel, name, info.DSN)
	}
	fmt.Fprintln(w, t.String())
}
