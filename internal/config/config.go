// Package config - настройки сервиса: значения по умолчанию, YAML-файл,
// .env и переменные окружения (в порядке возрастания приоритета).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Типы хранилищ.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Типы очередей.
const (
	QueueMemory = "memory"
	QueueNATS   = "nats"
)

// Config - корневая конфигурация.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
	Mail    MailConfig    `yaml:"mail"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Type          string        `yaml:"type"`
	DSN           string        `yaml:"dsn"`
	ForceIPv4     bool          `yaml:"force_ipv4"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	Seed          bool          `yaml:"seed"`
}

type QueueConfig struct {
	Type       string        `yaml:"type"`
	Buffer     int           `yaml:"buffer"`
	Workers    int           `yaml:"workers"`
	MaxDeliver int           `yaml:"max_deliver"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	NATS       NATSConfig    `yaml:"nats"`
}

type NATSConfig struct {
	URL           string        `yaml:"url"`
	Stream        string        `yaml:"stream"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Consumer      string        `yaml:"consumer"`
	AckWait       time.Duration `yaml:"ack_wait"`
}

type MailConfig struct {
	From         string   `yaml:"from"`
	FeedbackFrom string   `yaml:"feedback_from"`
	Admins       []string `yaml:"admins"`
	SiteURL      string   `yaml:"site_url"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig - конфигурация для локального запуска без внешних сервисов.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			CORSOrigins:     []string{"http://localhost:8080"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type:          StorageMemory,
			MaxOpenConns:  10,
			SlowThreshold: 200 * time.Millisecond,
		},
		Queue: QueueConfig{
			Type:       QueueMemory,
			Buffer:     256,
			Workers:    2,
			MaxDeliver: 5,
			RetryDelay: 5 * time.Second,
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				Stream:        "BLOG_NOTIFY",
				SubjectPrefix: "blog.notify",
				Consumer:      "blog-notify-worker",
				AckWait:       30 * time.Second,
			},
		},
		Mail: MailConfig{
			From:         "from@example.com",
			FeedbackFrom: "user@example.com",
			Admins:       []string{"admin@example.com"},
			SiteURL:      "http://localhost:8080",
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		Cache: CacheConfig{
			TTL:  15 * time.Second,
			Size: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile читает YAML поверх значений по умолчанию.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv переопределяет настройки переменными окружения.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("PORT"); v != "" {
		c.HTTP.Port = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Storage.DSN = v
		if c.Storage.Type == StorageMemory {
			c.Storage.Type = StoragePostgres
		}
	}
	if v := getenv("NATS_URL"); v != "" {
		c.Queue.NATS.URL = v
		c.Queue.Type = QueueNATS
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("CORS_ORIGIN"); v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate проверяет итоговую конфигурацию.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port == "" {
		errs = append(errs, fmt.Errorf("http.port is required"))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres, StorageSQLite:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for %s storage", c.Storage.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
	}

	switch c.Queue.Type {
	case QueueMemory:
		if c.Queue.Workers <= 0 {
			errs = append(errs, fmt.Errorf("queue.workers must be positive"))
		}
	case QueueNATS:
		if c.Queue.NATS.URL == "" {
			errs = append(errs, fmt.Errorf("queue.nats.url is required for nats queue"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown queue.type %q", c.Queue.Type))
	}
	if c.Queue.MaxDeliver <= 0 {
		errs = append(errs, fmt.Errorf("queue.max_deliver must be positive"))
	}

	if len(c.Mail.Admins) == 0 {
		errs = append(errs, fmt.Errorf("mail.admins must not be empty"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required (set JWT_SECRET)"))
	}
	if c.Cache.TTL <= 0 || c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl and cache.size must be positive"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	return errors.Join(errs...)
}
