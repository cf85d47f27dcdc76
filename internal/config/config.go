package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Scheduler SchedulerConfig
	Source    SourceConfig
	Watermark WatermarkConfig
	Redis     RedisConfig
	Notifier  NotifierConfig
	Log       LogConfig

	SettingsFile string
}

// ServerConfig controls the status API; an empty Address disables it.
type ServerConfig struct {
	Address string
}

type SchedulerConfig struct {
	Interval   time.Duration
	FetchLimit int
}

type SourceConfig struct {
	Command    string
	Timeout    time.Duration
	Location   *time.Location
	DeviceName string
}

type WatermarkConfig struct {
	Backend string
	Path    string
	Key     string
	DSN     string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type NotifierConfig struct {
	Kind        string
	Timeout     time.Duration
	Concurrency int

	TelegramAPIURL string
	WebhookURL     string
	LarkAppID      string
	SMTPAddr       string
	SMTPUsername   string
	SMTPFrom       string
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"

	NotifierTelegram = "telegram"
	NotifierWebhook  = "webhook"
	NotifierLark     = "lark"
	NotifierSMTP     = "smtp"
)

// LoadAll reads the runtime configuration from the environment. Every
// problem found is reported, not just the first one.
func LoadAll() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	seconds := func(key string, def int) time.Duration {
		return time.Duration(intVar(key, def)) * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: os.Getenv("SERVER_ADDRESS"),
		},
		Scheduler: SchedulerConfig{
			Interval:   seconds("SMS_POLL_INTERVAL_SECONDS", 15),
			FetchLimit: intVar("SMS_FETCH_LIMIT", 10),
		},
		Source: SourceConfig{
			Command:    getEnv("SMS_LIST_COMMAND", "termux-sms-list"),
			Timeout:    seconds("SMS_COMMAND_TIMEOUT_SECONDS", 20),
			DeviceName: getEnv("DEVICE_NAME", hostname()),
		},
		Watermark: WatermarkConfig{
			Backend: strings.ToLower(getEnv("WATERMARK_BACKEND", BackendFile)),
			Path:    getEnv("WATERMARK_PATH", "sms_forwarder_watermark.txt"),
			Key:     getEnv("WATERMARK_KEY", "sms-forwarder:watermark"),
			DSN:     os.Getenv("WATERMARK_DSN"),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intVar("REDIS_DB", 0),
		},
		Notifier: NotifierConfig{
			Kind:           strings.ToLower(getEnv("NOTIFIER", NotifierTelegram)),
			Timeout:        seconds("NOTIFY_TIMEOUT_SECONDS", 10),
			Concurrency:    intVar("NOTIFY_CONCURRENCY", 4),
			TelegramAPIURL: os.Getenv("TELEGRAM_API_URL"),
			WebhookURL:     os.Getenv("WEBHOOK_URL"),
			LarkAppID:      os.Getenv("LARK_APP_ID"),
			SMTPAddr:       os.Getenv("SMTP_ADDR"),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPFrom:       os.Getenv("SMTP_FROM"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		SettingsFile: getEnv("SETTINGS_FILE", "sms_forwarder_config.yaml"),
	}

	loc, err := loadLocation(os.Getenv("SMS_TIMEZONE"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Source.Location = loc

	errs = append(errs, validate(cfg)...)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("SMS_POLL_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Scheduler.FetchLimit <= 0 {
		errs = append(errs, errors.New("SMS_FETCH_LIMIT must be > 0"))
	}
	if cfg.Source.Timeout <= 0 {
		errs = append(errs, errors.New("SMS_COMMAND_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Notifier.Timeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Notifier.Concurrency <= 0 {
		errs = append(errs, errors.New("NOTIFY_CONCURRENCY must be > 0"))
	}

	// require reports a variable that the selected backend or transport needs.
	require := func(key, selection string) {
		if _, err := requireEnv(key); err != nil {
			errs = append(errs, fmt.Errorf("%w (needed by %s)", err, selection))
		}
	}

	switch cfg.Watermark.Backend {
	case BackendFile, BackendSQLite:
	case BackendRedis:
		require("REDIS_ADDR", "WATERMARK_BACKEND=redis")
	case BackendPostgres, BackendMySQL:
		require("WATERMARK_DSN", "WATERMARK_BACKEND="+cfg.Watermark.Backend)
	default:
		errs = append(errs, fmt.Errorf("WATERMARK_BACKEND %q is not supported", cfg.Watermark.Backend))
	}

	switch cfg.Notifier.Kind {
	case NotifierTelegram:
	case NotifierWebhook:
		require("WEBHOOK_URL", "NOTIFIER=webhook")
	case NotifierLark:
		require("LARK_APP_ID", "NOTIFIER=lark")
	case NotifierSMTP:
		require("SMTP_ADDR", "NOTIFIER=smtp")
		require("SMTP_FROM", "NOTIFIER=smtp")
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER %q is not supported", cfg.Notifier.Kind))
	}
	return errs
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("invalid SMS_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "android"
	}
	return h
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
