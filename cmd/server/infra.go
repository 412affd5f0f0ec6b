package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm/logger"

	"github.com/UkralStul/blog-publication-service/internal/config"
	"github.com/UkralStul/blog-publication-service/internal/notify"
	"github.com/UkralStul/blog-publication-service/internal/notify/memqueue"
	"github.com/UkralStul/blog-publication-service/internal/notify/natsqueue"
	"github.com/UkralStul/blog-publication-service/internal/storage"
	"github.com/UkralStul/blog-publication-service/internal/storage/inmemory"
	"github.com/UkralStul/blog-publication-service/internal/storage/sqlstore"
)

// loadConfig загружает конфигурацию и настраивает логгер по ней.
func loadConfig(g *globalFlags) (*config.Config, *slog.Logger, error) {
	bootstrap := newLogger(os.Stderr, "info", "text")
	cfg, err := config.NewLoader(bootstrap).Load(g.configPath, g.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// store - хранилище вместе с его жизненным циклом.
type store struct {
	storage.Storage
	close func() error
	ping  func(ctx context.Context) error
}

func openStorage(cfg config.StorageConfig, log *slog.Logger) (*store, error) {
	log.Info("Opening storage", "type", cfg.Type)

	opts := sqlstore.Options{
		Logger:        log,
		SlowThreshold: cfg.SlowThreshold,
		ForceIPv4:     cfg.ForceIPv4,
		MaxOpenConns:  cfg.MaxOpenConns,
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		opts.LogLevel = logger.Info
	}

	switch cfg.Type {
	case config.StoragePostgres:
		s, err := sqlstore.NewPostgres(cfg.DSN, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return &store{Storage: s, close: s.Close, ping: s.Ping}, nil
	case config.StorageSQLite:
		s, err := sqlstore.NewSQLite(cfg.DSN, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return &store{Storage: s, close: s.Close, ping: s.Ping}, nil
	default:
		return &store{
			Storage: inmemory.New(),
			close:   func() error { return nil },
			ping:    func(context.Context) error { return nil },
		}, nil
	}
}

// jobQueue - очередь задач уведомлений вместе с ее жизненным циклом.
type jobQueue interface {
	notify.Queue
	notify.Consumer
	Close() error
}

func openQueue(ctx context.Context, cfg config.QueueConfig, log *slog.Logger) (jobQueue, error) {
	if cfg.Type == config.QueueNATS {
		q, err := natsqueue.Connect(ctx, natsqueue.Options{
			URL:           cfg.NATS.URL,
			Stream:        cfg.NATS.Stream,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			Consumer:      cfg.NATS.Consumer,
			MaxDeliver:    cfg.MaxDeliver,
			AckWait:       cfg.NATS.AckWait,
			RetryDelay:    cfg.RetryDelay,
			Logger:        log,
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	}

	log.Info("Using in-process notification queue", "buffer", cfg.Buffer, "workers", cfg.Workers)
	return memqueue.New(memqueue.Options{
		Buffer:     cfg.Buffer,
		Workers:    cfg.Workers,
		MaxDeliver: cfg.MaxDeliver,
		RetryDelay: cfg.RetryDelay,
		Logger:     log,
	}), nil
}

func newWorker(cfg *config.Config, directory notify.Directory, log *slog.Logger, metrics *notify.Metrics) *notify.Worker {
	return notify.NewWorker(notify.LogMailer{Logger: log}, directory, notify.MailConfig{
		From:         cfg.Mail.From,
		FeedbackFrom: cfg.Mail.FeedbackFrom,
		Admins:       cfg.Mail.Admins,
		SiteURL:      cfg.Mail.SiteURL,
	}, log, metrics)
}
