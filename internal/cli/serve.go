package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagetrail/pagetrail/internal/daemon"
	"github.com/pagetrail/pagetrail/internal/search"
	syncsvc "github.com/pagetrail/pagetrail/internal/sync"
	"github.com/pagetrail/pagetrail/internal/visit"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	logger := newLogger(a.cfg.Logging.Level, c.LogLevel, c.globals)

	processor := visit.NewProcessor(
		a.store,
		a.cfg.CompiledExclusions(),
		a.cfg.Capture.DenylistDomains,
		logger,
	)

	// Background pushes fire only while the sync flag is enabled; wiring the
	// notifier unconditionally keeps the decision in one place.
	if a.cfg.Sync.BackendURL != "" {
		session, err := syncsvc.NewSession(context.Background(), a.kv, os.Getenv(EnvBackendToken))
		if err != nil {
			return fmt.Errorf("init sync session: %w", err)
		}
		client := syncsvc.NewBackendClient(
			a.cfg.Sync.BackendURL, a.cfg.Sync.Table, session, a.cfg.Sync.RequestsPerSecond)
		service := syncsvc.NewService(
			a.store, client, syncsvc.NewFlag(a.kv),
			time.Duration(a.cfg.Sync.DebounceSeconds)*time.Second, logger)
		defer service.Stop()
		processor.OnRecorded(service.NotifyVisit)
	}

	port := a.cfg.Daemon.Port
	if c.Port != 0 {
		port = c.Port
	}

	srv := daemon.New(daemon.Config{
		Host:       a.cfg.Daemon.Host,
		Port:       port,
		AuthToken:  a.cfg.Daemon.AuthToken,
		MaxResults: a.cfg.Search.MaxResults,
	}, a.store, processor, search.New(logger), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newLogger builds the daemon's slog logger from config and flag overrides.
func newLogger(cfgLevel, flagLevel string, globals *GlobalFlags) *slog.Logger {
	level := cfgLevel
	if flagLevel != "" {
		level = flagLevel
	}

	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	if globals != nil && globals.Verbose {
		l = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
