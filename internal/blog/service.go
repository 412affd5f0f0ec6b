// Package blog - сценарии блога: регистрация, посты, комментарии, отзывы.
//
// Каждая операция - явный конвейер: проверка формы, авторизация, запись в
// хранилище, сравнение состояния до и после, постановка уведомления в очередь.
// Уведомление ставится после коммита; сбой постановки только логируется.
package blog

import (
	"context"
	"log/slog"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/notify"
	"github.com/UkralStul/blog-publication-service/internal/publication"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// Размеры страниц и топа на главной.
const (
	PostsPerPage    = 3
	MyPostsPerPage  = 5
	CommentsPerPage = 10
	TopPosts        = 5
)

// Broadcaster получает комментарии в момент публикации (живая лента).
type Broadcaster interface {
	Publish(c *domain.Comment) int
}

// Options - необязательные зависимости сервиса.
type Options struct {
	Feed   Broadcaster
	Clock  publication.Clock
	Logger *slog.Logger
}

// Service реализует сценарии блога.
type Service struct {
	store  storage.Storage
	jobs   notify.Enqueuer
	feed   Broadcaster
	clock  publication.Clock
	logger *slog.Logger
}

// NewService создает сервис.
func NewService(store storage.Storage, jobs notify.Enqueuer, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:  store,
		jobs:   jobs,
		feed:   opts.Feed,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
}

// enqueue ставит задачу после коммита. Ошибка не возвращается: запись уже
// сохранена, а уведомления - best effort.
func (s *Service) enqueue(ctx context.Context, job notify.Job) {
	handle, err := s.jobs.Enqueue(ctx, job)
	if err != nil {
		s.logger.Error("Failed to enqueue notification",
			"kind", job.Kind,
			"error", err)
		return
	}
	s.logger.Debug("Notification scheduled", "job_id", handle.ID, "kind", handle.Kind)
}

// Stats - цифры для главной страницы.
func (s *Service) Stats(ctx context.Context) (*domain.SiteStats, error) {
	return s.store.Stats(ctx, TopPosts)
}
