package natsqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/UkralStul/blog-publication-service/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMsg struct {
	data   []byte
	acked  bool
	termed bool
	nakked time.Duration
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack() error   { m.acked = true; return nil }
func (m *fakeMsg) Term() error  { m.termed = true; return nil }
func (m *fakeMsg) NakWithDelay(d time.Duration) error {
	m.nakked = d
	return nil
}

func newTestQueue() *Queue {
	opts := Options{
		RetryDelay: 3 * time.Second,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	opts.defaults()
	return &Queue{opts: opts}
}

func encoded(t *testing.T) []byte {
	job := notify.PostPublished(5)
	job.ID = "job-5"
	data, err := job.Marshal()
	require.NoError(t, err)
	return data
}

func TestOptions_Subject(t *testing.T) {
	opts := Options{}
	opts.defaults()
	assert.Equal(t, "blog.notify.post_published", opts.Subject(notify.KindPostPublished))
	assert.Equal(t, "BLOG_NOTIFY", opts.Stream)
	assert.Equal(t, 5, opts.MaxDeliver)
}

func TestHandle_AckOnSuccess(t *testing.T) {
	q := newTestQueue()
	msg := &fakeMsg{data: encoded(t)}

	var got notify.Job
	q.handle(context.Background(), msg, func(_ context.Context, job notify.Job) error {
		got = job
		return nil
	})

	assert.True(t, msg.acked)
	assert.False(t, msg.termed)
	assert.Equal(t, "job-5", got.ID)
	assert.Equal(t, notify.KindPostPublished, got.Kind)
}

func TestHandle_NakOnFailure(t *testing.T) {
	q := newTestQueue()
	msg := &fakeMsg{data: encoded(t)}

	q.handle(context.Background(), msg, func(context.Context, notify.Job) error {
		return errors.New("smtp down")
	})

	assert.False(t, msg.acked)
	assert.Equal(t, 3*time.Second, msg.nakked)
}

func TestHandle_TermOnMalformed(t *testing.T) {
	q := newTestQueue()
	msg := &fakeMsg{data: encoded(t)}

	q.handle(context.Background(), msg, func(context.Context, notify.Job) error {
		return fmt.Errorf("%w: bad", notify.ErrMalformedJob)
	})
	assert.True(t, msg.termed)
	assert.False(t, msg.acked)

	garbage := &fakeMsg{data: []byte("not a job")}
	called := false
	q.handle(context.Background(), garbage, func(context.Context, notify.Job) error {
		called = true
		return nil
	})
	assert.True(t, garbage.termed)
	assert.False(t, called)
}

type failingFetcher struct {
	calls atomic.Int32
}

func (f *failingFetcher) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.calls.Add(1)
	return nil, nats.ErrConnectionClosed
}

func TestFetchLoop_BacksOffOnFetchError(t *testing.T) {
	q := newTestQueue()
	q.opts.FetchBackoff = 50 * time.Millisecond
	f := &failingFetcher{}

	ctx, cancel := context.WithTimeout(context.Background(), 220*time.Millisecond)
	defer cancel()

	err := q.fetchLoop(ctx, f, func(context.Context, notify.Job) error {
		t.Fatal("handler must not be called")
		return nil
	})
	require.NoError(t, err)

	// без паузы цикл делал бы тысячи вызовов
	calls := f.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(2))
	assert.LessOrEqual(t, calls, int32(6))
}

func TestFetchLoop_StopsDuringBackoff(t *testing.T) {
	q := newTestQueue()
	q.opts.FetchBackoff = time.Hour
	f := &failingFetcher{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.fetchLoop(ctx, f, func(context.Context, notify.Job) error { return nil })
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fetch loop did not stop after cancel")
	}
	assert.Equal(t, int32(1), f.calls.Load())
}
