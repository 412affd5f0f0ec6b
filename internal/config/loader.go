package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Loader собирает конфигурацию: defaults, файл, .env, окружение.
type Loader struct {
	logger *slog.Logger
	getenv func(string) string
}

// NewLoader создает загрузчик конфигурации.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, getenv: os.Getenv}
}

// Load загружает конфигурацию. Пустой path - только defaults и окружение.
// Отсутствующий .env не ошибка.
func (l *Loader) Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			l.logger.Debug("Loaded env file", slog.String("path", envFile))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load env file", slog.String("path", envFile), slog.String("error", err.Error()))
		}
	}

	config := DefaultConfig()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", path))
		config = fileConfig
	}

	config.ApplyEnv(l.getenv)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
