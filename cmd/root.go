package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifier/internal/config"
)

// Execute loads the configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree around cfg.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "notifier",
		Short: "Translate and dispatch notifications over email, SMS, chat and push",
		Long: `notifier renders a notification in each recipient's language and hands it
to the transports configured for the requested channels. Every scheduled
and every sent message is written to the system log.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		NewServeCmd(cfg),
		NewSendCmd(cfg),
		NewTransportsCmd(cfg),
		NewVersionCmd(),
		NewUpdateCmd(),
	)
	return root
}
