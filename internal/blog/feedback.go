package blog

import (
	"context"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/notify"
)

// SubmitFeedback проверяет отзыв и отправляет его администраторам.
// Отзыв нигде не хранится.
func (s *Service) SubmitFeedback(ctx context.Context, in FeedbackInput) (domain.Feedback, error) {
	fb, err := in.validate()
	if err != nil {
		return domain.Feedback{}, err
	}

	s.logger.Info("Feedback received", "author", fb.Author, "score", fb.Score)
	s.enqueue(ctx, notify.FeedbackSubmitted(fb))
	return fb, nil
}
