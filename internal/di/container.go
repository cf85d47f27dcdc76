package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/LeventeLantos/sms-forwarder/internal/api"
	"github.com/LeventeLantos/sms-forwarder/internal/config"
	"github.com/LeventeLantos/sms-forwarder/internal/filter"
	"github.com/LeventeLantos/sms-forwarder/internal/logging"
	"github.com/LeventeLantos/sms-forwarder/internal/notify"
	"github.com/LeventeLantos/sms-forwarder/internal/scheduler"
	"github.com/LeventeLantos/sms-forwarder/internal/service"
	"github.com/LeventeLantos/sms-forwarder/internal/source"
	"github.com/LeventeLantos/sms-forwarder/internal/watermark"
)

// BuildContainer registers every component of the forwarder. Runtime
// config and the persisted settings are resolved before the container is
// built because setup may need to prompt for the latter.
func BuildContainer(cfg *config.Config, settings *config.Settings) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *config.Settings { return settings }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		return logging.New(cfg.Log.Level, cfg.Log.Format)
	}); err != nil {
		return nil, err
	}

	// Register adapters
	if err := container.Provide(NewSource); err != nil {
		return nil, err
	}
	if err := container.Provide(NewStore); err != nil {
		return nil, err
	}
	if err := container.Provide(NewNotifier); err != nil {
		return nil, err
	}

	// Register forwarding services
	if err := container.Provide(func(n notify.Notifier, cfg *config.Config, logger *zap.Logger) *service.Dispatcher {
		return service.NewDispatcher(n, cfg.Notifier.Concurrency, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		src source.Source,
		store watermark.Store,
		d *service.Dispatcher,
		cfg *config.Config,
		settings *config.Settings,
		logger *zap.Logger,
	) (*service.Forwarder, error) {
		return service.NewForwarder(context.Background(), src, store, d, service.Options{
			FetchLimit: cfg.Scheduler.FetchLimit,
			DeviceName: cfg.Source.DeviceName,
			Filters:    filter.NewFilterSet(settings.Filters),
			Recipients: settings.Recipients,
		}, logger)
	}); err != nil {
		return nil, err
	}

	// Register scheduler and status API
	if err := container.Provide(func(cfg *config.Config, f *service.Forwarder, logger *zap.Logger) (*scheduler.Scheduler, error) {
		return scheduler.New(cfg.Scheduler.Interval, f.Tick, logger.Named("scheduler"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *scheduler.Scheduler, f *service.Forwarder) *api.Handler {
		return api.NewHandler(s, f)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
