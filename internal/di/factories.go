package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LeventeLantos/sms-forwarder/internal/config"
	"github.com/LeventeLantos/sms-forwarder/internal/notify"
	"github.com/LeventeLantos/sms-forwarder/internal/source"
	"github.com/LeventeLantos/sms-forwarder/internal/watermark"
)

const (
	connectTimeout    = 10 * time.Second
	defaultSQLitePath = "sms_forwarder.db"
)

func NewSource(cfg *config.Config, logger *zap.Logger) source.Source {
	return source.NewTermuxSource(cfg.Source.Command, cfg.Source.Timeout, cfg.Source.Location, logger.Named("source"))
}

// NewStore opens the watermark backend named by WATERMARK_BACKEND.
func NewStore(cfg *config.Config, logger *zap.Logger) (watermark.Store, error) {
	logger = logger.Named("watermark")
	wc := cfg.Watermark

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch wc.Backend {
	case config.BackendFile:
		return watermark.NewFileStore(wc.Path, logger), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		return watermark.NewRedisStore(rdb, wc.Key, logger), nil
	case config.BackendSQLite:
		dsn := wc.DSN
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return watermark.OpenSQLStore(ctx, watermark.SQLite, dsn, wc.Key, logger)
	case config.BackendPostgres:
		return watermark.OpenSQLStore(ctx, watermark.Postgres, wc.DSN, wc.Key, logger)
	case config.BackendMySQL:
		return watermark.OpenSQLStore(ctx, watermark.MySQL, wc.DSN, wc.Key, logger)
	default:
		return nil, fmt.Errorf("unsupported watermark backend: %s", wc.Backend)
	}
}

// NewNotifier builds the transport named by NOTIFIER using the persisted
// credential.
func NewNotifier(cfg *config.Config, settings *config.Settings) (notify.Notifier, error) {
	if settings == nil {
		return nil, errors.New("settings are required")
	}
	nc := cfg.Notifier

	switch nc.Kind {
	case config.NotifierTelegram:
		return notify.NewTelegramClient(nc.TelegramAPIURL, settings.Credential, nc.Timeout), nil
	case config.NotifierWebhook:
		return notify.NewWebhookClient(nc.WebhookURL, settings.Credential, nc.Timeout), nil
	case config.NotifierLark:
		return notify.NewLarkClient(nc.LarkAppID, settings.Credential, nc.Timeout), nil
	case config.NotifierSMTP:
		return notify.NewSMTPClient(nc.SMTPAddr, nc.SMTPFrom, nc.SMTPUsername, settings.Credential, nc.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported notifier: %s", nc.Kind)
	}
}
