package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// Message - письмо для почтового транспорта.
type Message struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer - внешний почтовый транспорт (SMTP и т.п.).
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Directory нужен, чтобы найти email автора поста.
type Directory interface {
	GetPostByID(ctx context.Context, id uint) (*domain.Post, error)
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
}

// MailConfig - адреса отправителей и получателей.
type MailConfig struct {
	From         string
	FeedbackFrom string
	Admins       []string
	SiteURL      string
}

// DeliveryError - сбой почтового транспорта внутри задачи.
type DeliveryError struct {
	JobID string
	Kind  Kind
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s job %s: %v", e.Kind, e.JobID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

var authorNoticeHTML = template.Must(template.New("author_notice").Parse(
	`<p>New comment was published!</p>` +
		`<p><a href="{{.URL}}">Read it on MyBlog</a></p>`))

// Worker исполняет задачи: формирует письмо и отдает его транспорту.
type Worker struct {
	mailer    Mailer
	directory Directory
	cfg       MailConfig
	logger    *slog.Logger
	metrics   *Metrics
}

// NewWorker создает исполнителя задач.
func NewWorker(mailer Mailer, directory Directory, cfg MailConfig, logger *slog.Logger, metrics *Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		mailer:    mailer,
		directory: directory,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute выполняет задачу. Сбой транспорта возвращается как *DeliveryError,
// чтобы очередь могла повторить задачу.
func (w *Worker) Execute(ctx context.Context, job Job) error {
	msg, err := w.render(ctx, job)
	if err != nil {
		if errors.Is(err, ErrMalformedJob) {
			w.metrics.executed(job.Kind, OutcomeMalformed)
		} else {
			w.metrics.executed(job.Kind, OutcomeFailed)
		}
		w.logger.Error("Failed to render notification",
			"job_id", job.ID,
			"kind", job.Kind,
			"error", err)
		return err
	}
	if msg == nil {
		w.metrics.executed(job.Kind, OutcomeSkipped)
		return nil
	}

	if err := w.mailer.Send(ctx, *msg); err != nil {
		w.metrics.executed(job.Kind, OutcomeFailed)
		w.logger.Warn("Mail transport failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"error", err)
		return &DeliveryError{JobID: job.ID, Kind: job.Kind, Err: err}
	}

	w.metrics.executed(job.Kind, OutcomeSent)
	w.logger.Info("Notification sent",
		"job_id", job.ID,
		"kind", job.Kind,
		"to", strings.Join(msg.To, ","))
	return nil
}

// render возвращает nil без ошибки, если отправлять некому.
func (w *Worker) render(ctx context.Context, job Job) (*Message, error) {
	switch job.Kind {
	case KindPostPublished, KindCommentCreated:
		var n AdminNotice
		if err := job.Decode(&n); err != nil {
			return nil, err
		}
		if n.Label == "" {
			return nil, fmt.Errorf("%w: empty label", ErrMalformedJob)
		}
		return &Message{
			From:    w.cfg.From,
			To:      w.cfg.Admins,
			Subject: fmt.Sprintf("New %s on the site!", n.Label),
			Body:    "Check your admin page",
		}, nil

	case KindCommentPublished:
		var n AuthorNotice
		if err := job.Decode(&n); err != nil {
			return nil, err
		}
		return w.renderAuthorNotice(ctx, job, n)

	case KindFeedbackSubmitted:
		var n FeedbackNotice
		if err := job.Decode(&n); err != nil {
			return nil, err
		}
		if n.Score < 1 || n.Score > 5 {
			return nil, fmt.Errorf("%w: score %d out of range", ErrMalformedJob, n.Score)
		}
		return &Message{
			From:    w.cfg.FeedbackFrom,
			To:      w.cfg.Admins,
			Subject: fmt.Sprintf("Feedback from %s", n.Author),
			Body: fmt.Sprintf("Reply user: %t, Evaluation: %d, Title: \"%s\"\n%s",
				n.Reply, n.Score, n.Title, n.Text),
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedJob, job.Kind)
	}
}

func (w *Worker) renderAuthorNotice(ctx context.Context, job Job, n AuthorNotice) (*Message, error) {
	post, err := w.directory.GetPostByID(ctx, n.PostID)
	if errors.Is(err, domain.ErrNotFound) {
		// Пост успели удалить - писать некому
		w.logger.Info("Post gone, skipping author notification", "job_id", job.ID, "post_id", n.PostID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", n.PostID, err)
	}

	author, err := w.directory.GetUserByID(ctx, post.AuthorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load author %d: %w", post.AuthorID, err)
	}
	if author.Email == "" {
		w.logger.Info("Author has no email, skipping notification", "job_id", job.ID, "user_id", author.ID)
		return nil, nil
	}

	var html bytes.Buffer
	url := fmt.Sprintf("%s/post/%d/details", strings.TrimRight(w.cfg.SiteURL, "/"), n.PostID)
	if err := authorNoticeHTML.Execute(&html, struct{ URL string }{url}); err != nil {
		return nil, fmt.Errorf("render author notice: %w", err)
	}

	return &Message{
		From:     w.cfg.From,
		To:       []string{author.Email},
		Subject:  "Hi, it's MyBlog",
		Body:     "New comment was published!",
		HTMLBody: html.String(),
	}, nil
}
