// Package memqueue - очередь задач в памяти процесса. Задачи теряются при
// перезапуске, поэтому в продакшене используется natsqueue.
package memqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/notify"
)

// ErrQueueFull - буфер заполнен, задача не принята.
var ErrQueueFull = errors.New("notification queue is full")

// ErrClosed - очередь уже закрыта.
var ErrClosed = errors.New("notification queue is closed")

// Options - настройки очереди.
type Options struct {
	Buffer     int
	Workers    int
	MaxDeliver int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

func (o *Options) defaults() {
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.MaxDeliver <= 0 {
		o.MaxDeliver = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type delivery struct {
	job     notify.Job
	attempt int
}

// Queue реализует notify.Queue и notify.Consumer.
type Queue struct {
	opts Options
	ch   chan delivery

	mu     sync.RWMutex
	closed bool
	timers sync.WaitGroup
}

// New создает очередь.
func New(opts Options) *Queue {
	opts.defaults()
	return &Queue{
		opts: opts,
		ch:   make(chan delivery, opts.Buffer),
	}
}

// Publish не блокируется: при полном буфере возвращает ErrQueueFull.
func (q *Queue) Publish(ctx context.Context, job notify.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.offer(delivery{job: job, attempt: 1})
}

func (q *Queue) offer(d delivery) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- d:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len - число задач в буфере.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Consume запускает Workers обработчиков и ждет отмены ctx.
func (q *Queue) Consume(ctx context.Context, h notify.Handler) error {
	var wg sync.WaitGroup
	for i := 0; i < q.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.loop(ctx, id, h)
		}(i)
	}
	wg.Wait()
	return nil
}

func (q *Queue) loop(ctx context.Context, worker int, h notify.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-q.ch:
			q.handle(ctx, worker, h, d)
		}
	}
}

func (q *Queue) handle(ctx context.Context, worker int, h notify.Handler, d delivery) {
	err := h(ctx, d.job)
	if err == nil {
		return
	}

	logger := q.opts.Logger.With(
		"worker", worker,
		"job_id", d.job.ID,
		"kind", d.job.Kind,
		"attempt", d.attempt)

	if errors.Is(err, notify.ErrMalformedJob) {
		logger.Error("Dropping malformed job", "error", err)
		return
	}
	if d.attempt >= q.opts.MaxDeliver {
		logger.Error("Job exhausted delivery attempts", "error", err)
		return
	}

	logger.Warn("Job failed, scheduling redelivery", "error", err, "delay", q.opts.RetryDelay)
	d.attempt++
	q.timers.Add(1)
	time.AfterFunc(q.opts.RetryDelay, func() {
		defer q.timers.Done()
		if err := q.offer(d); err != nil {
			logger.Error("Redelivery rejected", "error", err)
		}
	})
}

// Close запрещает новые задачи. Вызывается после остановки Consume;
// отложенные повторы после Close отбрасываются.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.timers.Wait()
	return nil
}
