// Package notify отправляет письма по событиям публикации асинхронно,
// вне цикла запрос-ответ.
//
// Гарантия доставки - at-least-once: повторы выполняет инфраструктура очереди
// (memqueue или JetStream), сам диспетчер ничего не повторяет и дубликаты писем
// не отсекает.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Queue принимает задачи. Publish не ждет выполнения задачи.
type Queue interface {
	Publish(ctx context.Context, job Job) error
}

// Handler выполняет одну задачу. Ошибка означает, что задачу надо повторить,
// кроме ErrMalformedJob.
type Handler func(ctx context.Context, job Job) error

// Consumer раздает задачи обработчику, пока не отменен ctx.
type Consumer interface {
	Consume(ctx context.Context, h Handler) error
}

// Enqueuer - то, что нужно коду запросов. Удобно подменять в тестах.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) (JobHandle, error)
}

// Dispatcher ставит задачи в очередь.
type Dispatcher struct {
	queue   Queue
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewDispatcher создает диспетчер поверх очереди.
func NewDispatcher(queue Queue, logger *slog.Logger, metrics *Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:   queue,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Enqueue присваивает задаче ID и отдает ее очереди.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) (JobHandle, error) {
	job.ID = uuid.NewString()
	job.EnqueuedAt = d.now().UTC()

	if err := d.queue.Publish(ctx, job); err != nil {
		return JobHandle{}, fmt.Errorf("enqueue %s: %w", job.Kind, err)
	}
	d.metrics.enqueued(job.Kind)

	d.logger.Debug("Notification job enqueued",
		"job_id", job.ID,
		"kind", job.Kind)

	return JobHandle{ID: job.ID, Kind: job.Kind}, nil
}
