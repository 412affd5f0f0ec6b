// Package natsqueue - очередь задач уведомлений поверх NATS JetStream.
// Повторы и учет попыток выполняет сам JetStream (MaxDeliver, AckWait).
package natsqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/UkralStul/blog-publication-service/internal/notify"
)

// Options - настройки подключения, потока и потребителя.
type Options struct {
	URL            string
	Stream         string
	SubjectPrefix  string
	Consumer       string
	MaxDeliver     int
	AckWait        time.Duration
	RetryDelay     time.Duration
	PublishTimeout time.Duration
	// FetchBackoff - пауза перед повтором после ошибки Fetch.
	FetchBackoff time.Duration
	Logger       *slog.Logger
}

func (o *Options) defaults() {
	if o.URL == "" {
		o.URL = nats.DefaultURL
	}
	if o.Stream == "" {
		o.Stream = "BLOG_NOTIFY"
	}
	if o.SubjectPrefix == "" {
		o.SubjectPrefix = "blog.notify"
	}
	if o.Consumer == "" {
		o.Consumer = "blog-notify-worker"
	}
	if o.MaxDeliver <= 0 {
		o.MaxDeliver = 5
	}
	if o.AckWait <= 0 {
		o.AckWait = 30 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 2 * time.Second
	}
	if o.FetchBackoff <= 0 {
		o.FetchBackoff = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Subject возвращает тему для типа задачи.
func (o Options) Subject(kind notify.Kind) string {
	return o.SubjectPrefix + "." + string(kind)
}

// Queue реализует notify.Queue и notify.Consumer.
type Queue struct {
	opts   Options
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Connect подключается к NATS и создает (или обновляет) поток задач.
func Connect(ctx context.Context, opts Options) (*Queue, error) {
	opts.defaults()

	nc, err := nats.Connect(opts.URL,
		nats.Name("blog-publication-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", opts.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      opts.Stream,
		Subjects:  []string{opts.SubjectPrefix + ".>"},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", opts.Stream, err)
	}

	opts.Logger.Info("Connected to NATS JetStream",
		"url", opts.URL,
		"stream", opts.Stream,
		"subjects", opts.SubjectPrefix+".>")

	return &Queue{opts: opts, nc: nc, js: js, stream: stream}, nil
}

// Publish ждет подтверждения от JetStream. ID задачи служит ключом
// дедупликации, так что повторная публикация той же задачи безопасна.
func (q *Queue) Publish(ctx context.Context, job notify.Job) error {
	data, err := job.Marshal()
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, q.opts.PublishTimeout)
	defer cancel()

	if _, err := q.js.Publish(pubCtx, q.opts.Subject(job.Kind), data, jetstream.WithMsgID(job.ID)); err != nil {
		return fmt.Errorf("publish to %s: %w", q.opts.Subject(job.Kind), err)
	}
	return nil
}

// Consume создает долговременного потребителя и обрабатывает сообщения,
// пока не отменен ctx.
func (q *Queue) Consume(ctx context.Context, h notify.Handler) error {
	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       q.opts.Consumer,
		FilterSubject: q.opts.SubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.opts.AckWait,
		MaxDeliver:    q.opts.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", q.opts.Consumer, err)
	}

	q.opts.Logger.Info("Notification consumer started",
		"stream", q.opts.Stream,
		"consumer", q.opts.Consumer)

	return q.fetchLoop(ctx, consumer, h)
}

// fetcher - часть jetstream.Consumer, нужная циклу выборки.
type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

func (q *Queue) fetchLoop(ctx context.Context, consumer fetcher, h notify.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Fetch может падать сразу (например, соединение закрыто)
			q.opts.Logger.Debug("Fetch failed, backing off", "error", err, "delay", q.opts.FetchBackoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(q.opts.FetchBackoff):
			}
			continue
		}

		for msg := range msgs.Messages() {
			q.handle(ctx, msg, h)
		}

		if err := msgs.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, nats.ErrTimeout) {
			q.opts.Logger.Warn("Message fetch error", "error", err)
		}
	}
}

// Message - часть jetstream.Msg, нужная для обработки.
type Message interface {
	Data() []byte
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

func (q *Queue) handle(ctx context.Context, msg Message, h notify.Handler) {
	logger := q.opts.Logger

	job, err := notify.UnmarshalJob(msg.Data())
	if err != nil {
		logger.Error("Terminating undecodable message", "error", err)
		if err := msg.Term(); err != nil {
			logger.Warn("Failed to term message", "error", err)
		}
		return
	}

	logger = logger.With("job_id", job.ID, "kind", job.Kind)

	err = h(ctx, job)
	switch {
	case err == nil:
		if err := msg.Ack(); err != nil {
			logger.Warn("Failed to ack message", "error", err)
		}
	case errors.Is(err, notify.ErrMalformedJob):
		logger.Error("Terminating malformed job", "error", err)
		if err := msg.Term(); err != nil {
			logger.Warn("Failed to term message", "error", err)
		}
	default:
		logger.Warn("Job failed, requesting redelivery", "error", err, "delay", q.opts.RetryDelay)
		if err := msg.NakWithDelay(q.opts.RetryDelay); err != nil {
			logger.Warn("Failed to nak message", "error", err)
		}
	}
}

// Close дожидается отправки буферов и закрывает соединение.
func (q *Queue) Close() error {
	return q.nc.Drain()
}
