package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shaharia-lab/notifier/internal/build"
	"github.com/shaharia-lab/notifier/internal/config"
	"github.com/shaharia-lab/notifier/internal/eventbus"
	"github.com/shaharia-lab/notifier/internal/logger"
	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/service"
	"github.com/shaharia-lab/notifier/internal/storage"
	"github.com/shaharia-lab/notifier/internal/telemetry"
	"github.com/shaharia-lab/notifier/internal/translation"
	"github.com/shaharia-lab/notifier/internal/transport"
)

// app is the wired dispatch pipeline shared by the subcommands.
type app struct {
	cfg        *config.AppConfig
	logger     *slog.Logger
	registry   *transport.Registry
	transports service.TransportService
	bus        eventbus.EventBus
	svc        service.NotificationService
	telemetry  *telemetry.Providers

	logFile io.Closer
	db      *sql.DB
}

type appOptions struct {
	// telemetry installs the OpenTelemetry providers. Long-running commands
	// always want it; one-shot commands only when OTLP export is configured.
	telemetry bool
	// tolerateBrokenTransports starts with an empty registry when the stored
	// transports cannot be built, so they can still be listed and fixed.
	tolerateBrokenTransports bool
}

// newApp wires configuration, logging, the transport store, translations and
// the event bus into a NotificationService. Callers must Close the app.
func newApp(ctx context.Context, cfg *config.AppConfig, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.telemetry || cfg.OTLPEndpoint != "" {
		a.telemetry, err = telemetry.Setup(ctx, telemetry.Config{
			Endpoint:    cfg.OTLPEndpoint,
			ServiceName: cfg.ServiceName,
			Version:     build.Version,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
	}

	var logOpts []logger.Option
	if cfg.LogStderr {
		logOpts = append(logOpts, logger.WithStderr(os.Stderr))
	}
	if a.telemetry != nil && a.telemetry.Logs != nil {
		logOpts = append(logOpts, logger.WithOTel(a.telemetry.Logs, "github.com/shaharia-lab/notifier"))
	}
	a.logger, a.logFile, err = logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), logOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, fresh, err := storage.NewSQLiteDB(ctx, cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db

	a.registry = transport.NewRegistry()
	a.transports = service.NewTransportService(storage.NewSQLiteTransportStore(db), a.registry, a.logger)
	if fresh {
		// Seed the store from the transports file on first run.
		a.logger.Info("created transport database", "path", cfg.DBPath())
		_, err = a.transports.ImportFile(ctx, cfg.TransportsFile)
	} else {
		err = a.transports.Reload(ctx)
	}
	if err != nil {
		if !opts.tolerateBrokenTransports {
			return nil, fmt.Errorf("loading transports: %w", err)
		}
		a.logger.Warn("stored transports could not be built", "error", err)
	}
	if len(a.registry.Channels()) == 0 {
		a.logger.Warn("no transports configured", "file", cfg.TransportsFile)
	}

	translator, err := translation.LoadDir(cfg.TranslationsDir, cfg.DefaultLocale, a.logger)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	if cfg.NATSURL != "" {
		a.bus, err = eventbus.NewNATS(cfg.NATSURL, eventbus.DefaultNATSSubject, "notifier", a.logger)
		if err != nil {
			return nil, err
		}
	} else {
		a.bus = eventbus.New(cfg.EventWorkers, a.logger)
	}

	renderer := notification.NewRenderer(a.registry, translator, a.logger)
	notifier := transport.NewNotifier(a.registry, renderer, a.bus, a.logger)
	a.svc = service.NewNotificationService(notifier, a.bus, a.logger)

	a.logger.Info("notifier initialized",
		slog.String("data_dir", cfg.DataDir),
		slog.Any("channels", a.registry.Channels()),
		slog.String("version", build.Version),
	)
	return a, nil
}

// Close drains pending completion events before releasing the database and
// log file, so every accepted message has its "sent" record.
func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.svc != nil {
		a.svc.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(context.Background()); err != nil && a.logger != nil {
			a.logger.Warn("shutting down telemetry", "error", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
