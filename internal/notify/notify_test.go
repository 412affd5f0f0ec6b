// internal/notify/notify_test.go

package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/publication"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeDirectory struct {
	posts map[uint]*domain.Post
	users map[uint]*domain.User
}

func (d fakeDirectory) GetPostByID(_ context.Context, id uint) (*domain.Post, error) {
	if p, ok := d.posts[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (d fakeDirectory) GetUserByID(_ context.Context, id uint) (*domain.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func testMailConfig() MailConfig {
	return MailConfig{
		From:         "from@example.com",
		FeedbackFrom: "user@example.com",
		Admins:       []string{"admin@example.com"},
		SiteURL:      "http://blog.test/",
	}
}

func TestDispatcher_EnqueueAssignsIDAndPublishes(t *testing.T) {
	q := &recordingQueue{}
	metrics := NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(q, quietLogger(), metrics)

	h1, err := d.Enqueue(context.Background(), PostPublished(7))
	require.NoError(t, err)
	h2, err := d.Enqueue(context.Background(), PostPublished(7))
	require.NoError(t, err)

	assert.NotEmpty(t, h1.ID)
	assert.NotEqual(t, h1.ID, h2.ID)
	assert.Equal(t, KindPostPublished, h1.Kind)

	require.Len(t, q.jobs, 2)
	assert.Equal(t, h1.ID, q.jobs[0].ID)
	assert.False(t, q.jobs[0].EnqueuedAt.IsZero())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Enqueued.WithLabelValues(string(KindPostPublished))))
}

func TestDispatcher_EnqueueError(t *testing.T) {
	q := &recordingQueue{err: errors.New("broker down")}
	d := NewDispatcher(q, quietLogger(), nil)

	_, err := d.Enqueue(context.Background(), CommentCreated(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Contains(t, err.Error(), string(KindCommentCreated))
}

func TestForEvent(t *testing.T) {
	j := ForEvent(publication.PublishedEvent{EntityType: publication.EntityPost, EntityID: 3}, 3)
	assert.Equal(t, KindPostPublished, j.Kind)
	var a AdminNotice
	require.NoError(t, j.Decode(&a))
	assert.Equal(t, "post", a.Label)
	assert.Equal(t, uint(3), a.EntityID)

	// событие комментария 9 в посте 7: письмо автору поста 7
	j = ForEvent(publication.PublishedEvent{EntityType: publication.EntityComment, EntityID: 9}, 7)
	assert.Equal(t, KindCommentPublished, j.Kind)
	var n AuthorNotice
	require.NoError(t, j.Decode(&n))
	assert.Equal(t, uint(7), n.PostID)
}

func TestJob_MarshalUnmarshal(t *testing.T) {
	j := FeedbackSubmitted(domain.Feedback{Author: "bob", Title: "hi", Text: "nice", Score: 4, Reply: true})
	j.ID = "abc"
	data, err := j.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalJob(data)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, KindFeedbackSubmitted, got.Kind)

	_, err = UnmarshalJob([]byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformedJob)
	_, err = UnmarshalJob([]byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrMalformedJob)
}

func TestWorker_AdminNotices(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewWorker(mailer, fakeDirectory{}, testMailConfig(), quietLogger(), nil)

	require.NoError(t, w.Execute(context.Background(), PostPublished(1)))
	require.NoError(t, w.Execute(context.Background(), CommentCreated(2)))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "New post on the site!", mailer.sent[0].Subject)
	assert.Equal(t, "New comment on the site!", mailer.sent[1].Subject)
	assert.Equal(t, "Check your admin page", mailer.sent[0].Body)
	assert.Equal(t, "from@example.com", mailer.sent[0].From)
	assert.Equal(t, []string{"admin@example.com"}, mailer.sent[0].To)
}

func TestWorker_Feedback(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewWorker(mailer, fakeDirectory{}, testMailConfig(), quietLogger(), nil)

	job := FeedbackSubmitted(domain.Feedback{Author: "bob", Title: "Great", Text: "Loved it", Score: 5, Reply: true})
	require.NoError(t, w.Execute(context.Background(), job))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "Feedback from bob", msg.Subject)
	assert.Equal(t, "user@example.com", msg.From)
	assert.Equal(t, "Reply user: true, Evaluation: 5, Title: \"Great\"\nLoved it", msg.Body)
}

func TestWorker_CommentPublishedGoesToPostAuthor(t *testing.T) {
	mailer := &fakeMailer{}
	dir := fakeDirectory{
		posts: map[uint]*domain.Post{4: {ID: 4, AuthorID: 1}},
		users: map[uint]*domain.User{1: {ID: 1, Email: "alice@example.com"}},
	}
	w := NewWorker(mailer, dir, testMailConfig(), quietLogger(), nil)

	require.NoError(t, w.Execute(context.Background(), CommentPublished(4)))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	assert.Equal(t, "Hi, it's MyBlog", msg.Subject)
	assert.Equal(t, "New comment was published!", msg.Body)
	assert.Contains(t, msg.HTMLBody, `href="http://blog.test/post/4/details"`)
}

func TestWorker_CommentPublishedSkipsWithoutRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	metrics := NewMetrics(prometheus.NewRegistry())
	dir := fakeDirectory{
		posts: map[uint]*domain.Post{4: {ID: 4, AuthorID: 1}},
		users: map[uint]*domain.User{1: {ID: 1}},
	}
	w := NewWorker(mailer, dir, testMailConfig(), quietLogger(), metrics)

	// автор без email
	require.NoError(t, w.Execute(context.Background(), CommentPublished(4)))
	// пост удален
	require.NoError(t, w.Execute(context.Background(), CommentPublished(99)))

	assert.Empty(t, mailer.sent)
	assert.Equal(t, 2.0, testutil.ToFloat64(
		metrics.Executed.WithLabelValues(string(KindCommentPublished), OutcomeSkipped)))
}

func TestWorker_TransportFailureIsReported(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp timeout")}
	metrics := NewMetrics(prometheus.NewRegistry())
	w := NewWorker(mailer, fakeDirectory{}, testMailConfig(), quietLogger(), metrics)

	job := PostPublished(1)
	job.ID = "job-1"
	err := w.Execute(context.Background(), job)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "job-1", de.JobID)
	assert.Equal(t, KindPostPublished, de.Kind)
	assert.True(t, strings.Contains(err.Error(), "smtp timeout"))
	assert.NotErrorIs(t, err, ErrMalformedJob)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.Executed.WithLabelValues(string(KindPostPublished), OutcomeFailed)))
}

func TestWorker_MalformedJobs(t *testing.T) {
	w := NewWorker(&fakeMailer{}, fakeDirectory{}, testMailConfig(), quietLogger(), nil)

	cases := []Job{
		{Kind: "unknown", Payload: []byte(`{}`)},
		{Kind: KindCommentPublished, Payload: []byte(`"oops"`)},
		{Kind: KindFeedbackSubmitted, Payload: []byte(`{"score":9}`)},
		{Kind: KindPostPublished, Payload: []byte(`{}`)},
	}
	for _, job := range cases {
		err := w.Execute(context.Background(), job)
		assert.ErrorIs(t, err, ErrMalformedJob, "kind %s", job.Kind)
	}
}

func TestLogMailer_Send(t *testing.T) {
	var buf strings.Builder
	m := LogMailer{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, m.Send(context.Background(), Message{Subject: "hello", To: []string{"a@b.c"}}))
	assert.Contains(t, buf.String(), "subject=hello")
	assert.Contains(t, buf.String(), "to=a@b.c")
}
