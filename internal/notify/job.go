package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/publication"
)

// Kind - тип задачи уведомления.
type Kind string

const (
	// KindPostPublished - администратору: появился новый опубликованный пост.
	KindPostPublished Kind = "post_published"
	// KindCommentCreated - администратору: новый комментарий ждет модерации.
	KindCommentCreated Kind = "comment_created"
	// KindCommentPublished - автору поста: комментарий одобрен.
	KindCommentPublished Kind = "comment_published"
	// KindFeedbackSubmitted - администратору: пришел отзыв.
	KindFeedbackSubmitted Kind = "feedback_submitted"
)

// Kinds перечисляет все известные типы задач.
var Kinds = []Kind{KindPostPublished, KindCommentCreated, KindCommentPublished, KindFeedbackSubmitted}

// ErrMalformedJob - задачу невозможно выполнить ни с какой попытки.
// Очередь не должна ее повторять.
var ErrMalformedJob = errors.New("malformed notification job")

// Job - асинхронная задача на отправку письма, не связанная с жизнью запроса.
type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// JobHandle возвращается вызывающему сразу после постановки в очередь.
type JobHandle struct {
	ID   string
	Kind Kind
}

// AdminNotice - полезная нагрузка для post_published и comment_created.
type AdminNotice struct {
	Label    string `json:"label"`
	EntityID uint   `json:"entityId"`
}

// AuthorNotice - полезная нагрузка для comment_published.
type AuthorNotice struct {
	PostID uint `json:"postId"`
}

// FeedbackNotice - полезная нагрузка для feedback_submitted.
type FeedbackNotice struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Score  int    `json:"score"`
	Reply  bool   `json:"reply"`
}

// ForEvent строит задачу для события публикации. postID - пост, к которому
// относится событие (для поста совпадает с ev.EntityID).
func ForEvent(ev publication.PublishedEvent, postID uint) Job {
	if ev.EntityType == publication.EntityComment {
		return CommentPublished(postID)
	}
	return PostPublished(ev.EntityID)
}

// PostPublished - уведомление администратора о новом посте.
func PostPublished(postID uint) Job {
	return newJob(KindPostPublished, AdminNotice{Label: string(publication.EntityPost), EntityID: postID})
}

// CommentCreated - уведомление администратора о комментарии на модерации.
func CommentCreated(commentID uint) Job {
	return newJob(KindCommentCreated, AdminNotice{Label: string(publication.EntityComment), EntityID: commentID})
}

// CommentPublished принимает ID поста, а не комментария: письмо получает автор поста.
func CommentPublished(postID uint) Job {
	return newJob(KindCommentPublished, AuthorNotice{PostID: postID})
}

// FeedbackSubmitted - отзыв посетителя.
func FeedbackSubmitted(f domain.Feedback) Job {
	return newJob(KindFeedbackSubmitted, FeedbackNotice{
		Author: f.Author,
		Title:  f.Title,
		Text:   f.Text,
		Score:  f.Score,
		Reply:  f.Reply,
	})
}

func newJob(kind Kind, payload any) Job {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("notify: marshal %s payload: %v", kind, err))
	}
	return Job{Kind: kind, Payload: data}
}

// Decode разбирает полезную нагрузку в v. Ошибка разбора - это ErrMalformedJob.
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedJob, j.Kind, err)
	}
	return nil
}

// Marshal кодирует задачу для передачи через брокер.
func (j Job) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

// UnmarshalJob - обратная операция к Marshal.
func UnmarshalJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if j.Kind == "" {
		return Job{}, fmt.Errorf("%w: missing kind", ErrMalformedJob)
	}
	return j, nil
}
