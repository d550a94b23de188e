package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifier/internal/api"
	"github.com/shaharia-lab/notifier/internal/build"
	"github.com/shaharia-lab/notifier/internal/config"
	"github.com/shaharia-lab/notifier/internal/server"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP trigger API.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification HTTP API",
		Long: `Start the HTTP server that accepts notifications on POST /api/notifications
and manages transports under /api/transports. Health and Prometheus metrics
are served on /health and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg, appOptions{telemetry: true})
			if err != nil {
				return err
			}
			defer a.Close()

			serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
			printBanner(cmd.OutOrStdout(), build.Version, serverURL,
				filepath.Join(cfg.LogDir(), "system.log"), a.registry.Channels())

			srv := server.New(api.New(a.svc, a.transports, a.logger), cfg.Port, a.logger)
			if err := srv.Run(ctx); err != nil {
				a.logger.Error("server stopped", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")

	return cmd
}

// printBanner writes the startup banner. Structured logs go to the log file.
func printBanner(w io.Writer, version, serverURL, logFile string, channels []string) {
	configured := "none"
	if len(channels) > 0 {
		configured = strings.Join(channels, ", ")
	}
	rows := []string{
		successStyle.Render(fmt.Sprintf("notifier %s running", version)),
		"",
		labelStyle.Render("API:      ") + serverURL + "/api/notifications",
		labelStyle.Render("Admin:    ") + serverURL + "/api/transports",
		labelStyle.Render("Metrics:  ") + serverURL + "/metrics",
		labelStyle.Render("Channels: ") + configured,
		labelStyle.Render("Logs:     ") + logFile,
	}
	fmt.Fprintln(w, bannerStyle.Render(strings.Join(rows, "\n")))
}
