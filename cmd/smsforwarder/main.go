package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/LeventeLantos/sms-forwarder/internal/api"
	"github.com/LeventeLantos/sms-forwarder/internal/config"
	"github.com/LeventeLantos/sms-forwarder/internal/di"
	"github.com/LeventeLantos/sms-forwarder/internal/scheduler"
	"github.com/LeventeLantos/sms-forwarder/internal/watermark"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	reset    bool
	settings string
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("sms-forwarder", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.BoolVar(&opts.reset, "reset", false, "discard saved settings and run setup again")
	fs.StringVar(&opts.settings, "settings", "", "settings file path (overrides SETTINGS_FILE)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(1)
	}
	if opts.settings != "" {
		cfg.SettingsFile = opts.settings
	}

	settings, err := loadOrSetup(cfg, opts.reset, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}

	container, err := di.BuildContainer(cfg, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		sched *scheduler.Scheduler,
		handler *api.Handler,
		store watermark.Store,
	) error {
		return serve(ctx, cfg, logger, sched, handler, store)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// loadOrSetup returns the saved settings, prompting for them when the file
// is missing or reset is requested.
func loadOrSetup(cfg *config.Config, reset bool, in io.Reader, out io.Writer) (*config.Settings, error) {
	if reset {
		if err := config.ResetSettings(cfg.SettingsFile); err != nil {
			return nil, err
		}
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if errors.Is(err, config.ErrSettingsNotFound) {
		return config.RunSetup(in, out, cfg.SettingsFile, cfg.Notifier.Kind)
	}
	return settings, err
}

func serve(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	sched *scheduler.Scheduler,
	handler *api.Handler,
	store watermark.Store,
) error {
	defer logger.Sync()

	logger.Info("sms forwarder starting",
		zap.Duration("interval", cfg.Scheduler.Interval),
		zap.Int("fetch_limit", cfg.Scheduler.FetchLimit),
		zap.String("device", cfg.Source.DeviceName),
		zap.String("watermark_backend", cfg.Watermark.Backend),
		zap.String("notifier", cfg.Notifier.Kind),
	)

	var srv *http.Server
	if cfg.Server.Address != "" {
		srv = &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           api.Router(handler, logger.Named("http")),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status api listening", zap.String("addr", cfg.Server.Address))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status api stopped", zap.Error(err))
			}
		}()
	}

	if err := sched.Run(ctx); err != nil {
		return err
	}
	logger.Info("Shutting down...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop status api", zap.Error(err))
		}
	}

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close watermark store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
